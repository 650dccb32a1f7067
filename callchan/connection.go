package callchan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"github.com/teachly/teachly-mobile-common/tasks"
	"github.com/teachly/teachly-mobile-common/volatile"
)

type ConnectionState int32

const (
	ConnectionStateUndefined ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateClosed
)

func (s ConnectionState) String() string {
	return [...]string{
		"Undefined",
		"Connecting",
		"Connected",
		"Closed",
	}[s]
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 5 * time.Second

	// Send pings to peer with this period.
	pingInterval = 10 * time.Second

	pingLatency = 2 * time.Second

	protocolVersion = 1
)

var UnknownMsgTypeErr = errors.New("unknown message type")
var Closed = errors.New("call channel connection is closed")
var NotConnected = errors.New("call channel connection is not connected")

// Connection is one client's attachment to a call room's broadcast and
// presence topics. It reconnects on read/write failures; the server re-keys
// presence under the same clientId after a reconnect.
type Connection struct {
	url                 string
	roomID, accessToken string
	clientID            string
	self                PresenceRecord
	conn                *websocket.Conn
	connWriteMu         sync.Mutex
	connectTask         *tasks.Task
	cancelPing          context.CancelFunc
	state               *volatile.Value[ConnectionState]
	onState             func(newState ConnectionState)
}

func NewConnection(url, roomID, accessToken string, self PresenceRecord, onState func(newState ConnectionState)) *Connection {
	c := &Connection{
		url:         url,
		roomID:      roomID,
		accessToken: accessToken,
		clientID:    uuid.NewString(),
		self:        self,
		connectTask: nil, //init later
		cancelPing:  func() {},
		state:       volatile.NewValue(ConnectionStateUndefined),
		onState:     onState,
	}
	c.connectTask = tasks.New(c.connect, 0, false)
	if err := c.connectTask.SyncRun(time.Second * 10); err != nil {
		panic(err.Error())
	}
	return c
}

func (c *Connection) ClientID() string {
	return c.clientID
}

func (c *Connection) callOnState(newState ConnectionState) {
	if c.onState != nil {
		go c.onState(newState)
	}
}

func (c *Connection) Read() (typedMessage interface{}, rawMessage []byte, err error) {
	rawMessage, err = c.read()
	if err != nil {
		return
	}
	typedMessage, err = extractPayload(rawMessage)
	return
}

// Publish sends a broadcast to every other member of the room. Best effort:
// delivery failures are logged, never retried, and the sender will not
// receive its own message back.
func (c *Connection) Publish(ev Event) error {
	msg, err := marshalEvent(ev)
	if err != nil {
		return err
	}
	if err := c.writeMsg(msg); err != nil {
		log.WithError(err).Warnf("can not publish %v broadcast", ev.Kind())
		return err
	}
	return nil
}

// Announce refreshes this client's presence record on the room's topic.
func (c *Connection) Announce(rec PresenceRecord) error {
	c.self = rec
	err := c.writeMsg(&AnnounceRequestMessage{Presence: rec})
	if err != nil {
		log.WithError(err).Warn("can not send AnnounceRequestMessage")
	}
	return err
}

func (c *Connection) internalClose() {
	c.cancelPing()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (c *Connection) Close() {
	log.Info("⤵")
	defer log.Info("⤴")

	if err := c.connectTask.Stop(time.Second * 10); err != nil {
		log.WithError(err).Error("cannot stop connectTask")
	}
	if c.state.Swap(ConnectionStateClosed) == ConnectionStateClosed {
		return
	}

	c.internalClose()

	c.callOnState(ConnectionStateClosed)
}

func (c *Connection) writeMsg(msg RequestMessage) error {
	data, err := json.Marshal(&messageToWrite{Type: msg.typ(), Payload: msg})
	if err != nil {
		return fmt.Errorf("can not marshal messageToWrite, err = %w", err)
	}
	return c.write(websocket.MessageText, data)
}

func (c *Connection) connect(ctx context.Context) {
	log.Info("connect begin")
	defer log.Info("connect end")

	c.state.Store(ConnectionStateConnecting)
	c.callOnState(ConnectionStateConnecting)

	defer func() {
		if ctx.Err() == nil {
			c.state.Store(ConnectionStateConnected)
			c.callOnState(ConnectionStateConnected)
		}
	}()

	c.internalClose()

connectionCycle:
	for firstCycle := true; ; firstCycle = false {
		if !firstCycle {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Millisecond * 500):
			}
		}

		log.Info("dial websocket")
		conn, _, err := websocket.Dial(ctx, c.url, nil)
		if err != nil {
			log.WithError(err).Warn("cannot dial websocket")
			continue connectionCycle
		}
		log.Info("websocket connected")
		reqMsg := &RegisterRequestMessage{
			Room:        c.roomID,
			AccessToken: c.accessToken,
			ClientID:    c.clientID,
			Presence:    c.self,
			Version:     protocolVersion,
		}

		if writer, err := conn.Writer(ctx, websocket.MessageText); err != nil {
			_ = conn.Close(websocket.StatusAbnormalClosure, err.Error())
			log.WithError(err).Warn("cannot get writer")
			continue connectionCycle
		} else if err := json.NewEncoder(writer).Encode(&messageToWrite{Type: reqMsg.typ(), Payload: reqMsg}); err != nil {
			_ = writer.Close()
			_ = conn.Close(websocket.StatusAbnormalClosure, err.Error())
			log.WithError(err).Warn("cannot write(encode) RegisterRequestMessage")
			continue connectionCycle
		} else if err := writer.Close(); err != nil {
			log.WithError(err).Warn("cannot write(close) RegisterRequestMessage")
			continue connectionCycle
		}

		log.Info("websocket RegisterRequestMessage sent")

		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				log.WithError(err).Warn("cannot read RegisteredResponseMessage")
				_ = conn.Close(websocket.StatusAbnormalClosure, err.Error())
				continue connectionCycle
			}

			registerPayload, err := extractPayload(msg)
			if err != nil {
				log.WithError(err).Warn("cannot extract register payload")
				continue
			}

			registered, ok := registerPayload.(*RegisteredResponseMessage)
			if !ok {
				log.Infof("expected RegisteredResponseMessage, got %v", reflect.TypeOf(registerPayload))
				continue
			}
			log.Infof("registered on call channel, clientId=%v", registered.ClientID)
			break
		}

		c.conn = conn
		go c.ping(ctx)
		break
	}
	log.Info("websocket ready")
}

func (c *Connection) ping(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.cancelPing = cancel

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c.state.Load() != ConnectionStateConnected {
				return
			}
			ctx, cancel := context.WithTimeout(ctx, pingLatency)
			if err := c.conn.Ping(ctx); err != nil {
				log.WithError(err).Warn("ping")
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connection) read() (p []byte, err error) {
	state := c.state.Load()
	if state == ConnectionStateClosed {
		return p, Closed
	} else if state != ConnectionStateConnected {
		return p, NotConnected
	}

	_, p, err = c.conn.Read(context.Background())

	if err != nil {
		log.WithError(err).Info("cannot read message, trying to reconnect")
		c.connectTask.Run()
	}
	return
}

func (c *Connection) write(messageType websocket.MessageType, data []byte) (err error) {
	state := c.state.Load()
	if state == ConnectionStateClosed {
		return Closed
	} else if state != ConnectionStateConnected {
		return NotConnected
	}

	c.connWriteMu.Lock()
	defer c.connWriteMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	err = c.conn.Write(ctx, messageType, data)
	cancel()

	if err != nil {
		log.WithError(err).Info("cannot write message, trying to reconnect")
		c.connectTask.Run()
	}
	return
}
