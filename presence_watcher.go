package common

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/teachly/teachly-mobile-common/callchan"
	"github.com/teachly/teachly-mobile-common/utils"
)

type PresenceDelegate interface {
	OnPresenceChanged(json []byte)
}

// PresenceWatcher follows a call room's presence topic without joining
// media, so list screens can show "N people in call" next to a chat.
type PresenceWatcher struct {
	conn     *callchan.Connection
	delegate PresenceDelegate
}

func WatchCallPresence(channelURL, roomID, accessToken string, delegate PresenceDelegate) *PresenceWatcher {
	w := &PresenceWatcher{
		// watchers register with an empty record: no identity means the
		// channel tracks nothing for them
		conn:     callchan.NewConnection(channelURL, roomID, accessToken, callchan.PresenceRecord{}, nil),
		delegate: delegate,
	}
	go w.readLoop()
	return w
}

func (w *PresenceWatcher) Close() {
	w.conn.Close()
}

func (w *PresenceWatcher) readLoop() {
	for {
		typedMessage, _, err := w.conn.Read()
		if err != nil {
			if errors.Is(err, callchan.Closed) {
				return
			}
			if !errors.Is(err, callchan.UnknownMsgTypeErr) {
				log.WithError(err).Warn("cannot read presence message")
				time.Sleep(time.Second)
			}
			continue
		}
		if msg, ok := typedMessage.(*callchan.PresenceResponseMessage); ok {
			records := callchan.Flatten(msg.State)
			w.delegate.OnPresenceChanged(utils.PackToByteArray(packPresence(records, "")))
		}
	}
}
