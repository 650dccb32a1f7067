package common

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/teachly/teachly-mobile-common/audiomix"
	"github.com/teachly/teachly-mobile-common/callchan"
	"github.com/teachly/teachly-mobile-common/request"
	"github.com/teachly/teachly-mobile-common/utils"
)

type CallRoomState int32

const (
	CallRoomStateIdle CallRoomState = iota
	CallRoomStateConnecting
	CallRoomStateActive
	CallRoomStateEnded
)

func (s CallRoomState) String() string {
	return [...]string{
		"Idle",
		"Connecting",
		"Active",
		"Ended",
	}[s]
}

// CallDelegate is implemented by the native layer hosting the call view.
type CallDelegate interface {
	OnStateChanged(newState int)
	OnStageChanged(json []byte)
	OnPresenceChanged(json []byte)
	OnCallEnded(endedBy string)
	SetMicrophoneEnabled(enabled bool)
	OnError(message string)
}

// MediaTransport is the native SFU connection. Connect is asynchronous: the
// native layer reports the outcome through OnMediaConnected or
// OnMediaDisconnected on the room.
type MediaTransport interface {
	Connect(token string) error
	Disconnect()
}

// CallBackend updates the conversation's durable call flag.
type CallBackend interface {
	SetCallActive(roomID string, active bool) error
}

// CallChannel is the room-scoped broadcast/presence bus. Ephemeral and
// best-effort: nothing sent here is persisted or acknowledged.
type CallChannel interface {
	Publish(ev callchan.Event) error
	Announce(rec callchan.PresenceRecord) error
	Close()
}

type CallRoomConfig struct {
	RoomID      string
	Identity    string
	DisplayName string
	Avatar      string
	Role        string
	Delegate    CallDelegate
	Media       MediaTransport
	Backend     CallBackend
	Tokens      request.TokenSource
	DialChannel func(roomID, token string) (CallChannel, error)
}

// CallRoom drives one group call: token acquisition, media attach, the
// broadcast protocol, stage recomputation and teardown ordering.
type CallRoom struct {
	roomID      string
	selfID      string
	displayName string
	avatar      string
	role        Role

	delegate    CallDelegate
	media       MediaTransport
	backend     CallBackend
	tokens      request.TokenSource
	dialChannel func(roomID, token string) (CallChannel, error)

	perms *PermissionStore

	mu        sync.RWMutex
	state     CallRoomState
	joinToken string
	channel   CallChannel
	roster    map[string]Participant
	rosterIDs []string // join order, for stable stage output
	present   []callchan.PresenceRecord
	audio     *audiomix.Graph
	endSent   bool
}

func NewCallRoom(cfg CallRoomConfig) (*CallRoom, error) {
	if cfg.Delegate == nil || cfg.Media == nil || cfg.Tokens == nil {
		return nil, errors.New("call room delegate, media and tokens are required")
	}
	role, err := RoleFromString(cfg.Role)
	if err != nil {
		return nil, err
	}
	return &CallRoom{
		roomID:      cfg.RoomID,
		selfID:      cfg.Identity,
		displayName: cfg.DisplayName,
		avatar:      cfg.Avatar,
		role:        role,
		delegate:    cfg.Delegate,
		media:       cfg.Media,
		backend:     cfg.Backend,
		tokens:      cfg.Tokens,
		dialChannel: cfg.DialChannel,
		perms:       NewPermissionStore(),
		state:       CallRoomStateIdle,
		roster:      map[string]Participant{},
	}, nil
}

// JoinCall wires a CallRoom against the real call channel service. The room
// is returned in Idle; the caller triggers Start from a user action.
func JoinCall(
	delegate CallDelegate, media MediaTransport, api PublicHttpClient,
	channelURL, roomID, identity, displayName, avatar, role string,
) (*CallRoom, error) {
	r, err := NewCallRoom(CallRoomConfig{
		RoomID:      roomID,
		Identity:    identity,
		DisplayName: displayName,
		Avatar:      avatar,
		Role:        role,
		Delegate:    delegate,
		Media:       media,
		Backend:     api,
		Tokens:      api,
	})
	if err != nil {
		return nil, err
	}
	r.dialChannel = func(roomID, token string) (CallChannel, error) {
		conn := callchan.NewConnection(channelURL, roomID, token, r.selfRecord(), nil)
		go r.channelReadLoop(conn)
		return conn, nil
	}
	return r, nil
}

func (r *CallRoom) State() CallRoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *CallRoom) Permissions() *PermissionStore {
	return r.perms
}

// AttachAudioGraph hands the room the call's audio graph so teardown can
// release the microphone on every exit path.
func (r *CallRoom) AttachAudioGraph(g *audiomix.Graph) {
	r.mu.Lock()
	r.audio = g
	r.mu.Unlock()
}

func (r *CallRoom) selfRecord() callchan.PresenceRecord {
	return callchan.PresenceRecord{
		Identity:    r.selfID,
		DisplayName: r.displayName,
		Avatar:      r.avatar,
		Role:        r.role.String(),
	}
}

// Start acquires a join token and hands it to the media transport. A token
// failure returns the room to Idle so the user can retry.
func (r *CallRoom) Start() error {
	r.mu.Lock()
	if r.state != CallRoomStateIdle {
		r.mu.Unlock()
		return fmt.Errorf("cannot start call from state %v", r.state)
	}
	r.setStateLocked(CallRoomStateConnecting)
	r.mu.Unlock()

	token, err := r.tokens.JoinToken(request.JoinTokenRequest{
		RoomName:        r.roomID,
		ParticipantName: r.displayName,
		Identity:        r.selfID,
		IsTeacher:       r.role.IsModerator(),
	})
	if err != nil {
		log.WithError(err).Error("cannot acquire join token")
		r.mu.Lock()
		r.setStateLocked(CallRoomStateIdle)
		r.mu.Unlock()
		r.delegate.OnError(err.Error())
		return err
	}

	r.mu.Lock()
	r.joinToken = token
	r.mu.Unlock()

	if err := r.media.Connect(token); err != nil {
		log.WithError(err).Error("cannot connect media transport")
		r.mu.Lock()
		r.setStateLocked(CallRoomStateIdle)
		r.mu.Unlock()
		r.delegate.OnError(err.Error())
		return err
	}
	return nil
}

// OnMediaConnected is reported by the native layer once the SFU connection
// is up. The room attaches to the call channel, announces presence and, for
// a moderator, flips the durable call flag.
func (r *CallRoom) OnMediaConnected() {
	r.mu.Lock()
	if r.state != CallRoomStateConnecting {
		r.mu.Unlock()
		return
	}
	r.setStateLocked(CallRoomStateActive)
	token := r.joinToken
	r.mu.Unlock()

	if r.dialChannel != nil {
		channel, err := r.dialChannel(r.roomID, token)
		if err != nil {
			// broadcasts and presence degrade, media keeps running
			log.WithError(err).Warn("call channel unavailable")
		} else {
			r.mu.Lock()
			r.channel = channel
			r.mu.Unlock()
		}
	}

	r.mu.RLock()
	channel := r.channel
	r.mu.RUnlock()
	if channel != nil {
		_ = channel.Announce(r.selfRecord())
	}

	if r.role.IsModerator() && r.backend != nil {
		if err := r.backend.SetCallActive(r.roomID, true); err != nil {
			log.WithError(err).Error("cannot mark call active")
		}
	}
}

// OnMediaDisconnected is reported on a transport-level drop. No end_call is
// broadcast and the durable flag is left as-is: a participant falling off
// does not end the call for others.
func (r *CallRoom) OnMediaDisconnected(reason string) {
	r.mu.RLock()
	state := r.state
	r.mu.RUnlock()
	if state == CallRoomStateEnded || state == CallRoomStateIdle {
		return
	}

	log.Warnf("media transport disconnected, reason=%v", reason)
	r.delegate.OnError(fmt.Sprintf("transport disconnected: %v", reason))
	r.teardown()
}

// RaiseHand toggles this user's raised hand. The local state is applied at
// send time; the channel never echoes a sender's own broadcast back.
func (r *CallRoom) RaiseHand(raised bool) {
	ev := callchan.RaiseHandEvent{UserID: r.selfID, Raised: raised}
	r.applyLocal(ev)
	r.publish(ev)
}

// SetParticipantMic grants or revokes a participant's speaking permission.
// Moderator action; applied locally at send time for the same reason as
// RaiseHand.
func (r *CallRoom) SetParticipantMic(targetID string, unmute bool) {
	if !r.role.IsModerator() {
		log.Warnf("ignoring mic control from non-moderator role=%v", r.role)
		return
	}
	ev := callchan.MicControlEvent{TargetUserID: targetID, Unmute: unmute}
	r.applyLocal(ev)
	r.publish(ev)
}

// End finishes the call for everyone: one end_call broadcast, durable flag
// cleared by a moderator, then local teardown. The flag and the broadcast
// are independent signals: if the broadcast misses some participants they
// keep talking until they leave on their own.
func (r *CallRoom) End() {
	r.mu.Lock()
	if r.state != CallRoomStateActive && r.state != CallRoomStateConnecting {
		r.mu.Unlock()
		return
	}
	alreadySent := r.endSent
	r.endSent = true
	r.mu.Unlock()

	if !alreadySent {
		r.publish(callchan.EndCallEvent{})
	}
	if r.role.IsModerator() && r.backend != nil {
		if err := r.backend.SetCallActive(r.roomID, false); err != nil {
			log.WithError(err).Error("cannot clear call active flag")
		}
	}
	r.teardown()
	r.delegate.OnCallEnded(r.selfID)
}

// Leave disconnects this participant only. No broadcast, flag untouched.
func (r *CallRoom) Leave() {
	r.mu.RLock()
	state := r.state
	r.mu.RUnlock()
	if state == CallRoomStateEnded {
		return
	}
	r.teardown()
}

// UpsertParticipant mirrors the media transport's roster. The role is
// resolved once on first sight and kept for the session; later updates only
// refresh the client-reported fields.
func (r *CallRoom) UpsertParticipant(identity, displayName, role string, micEnabled bool) {
	resolved, err := RoleFromString(role)
	if err != nil {
		log.Warnf("participant %v joined with unknown role %v, treating as student", identity, role)
		resolved = RoleStudent
	}

	r.mu.Lock()
	existing, ok := r.roster[identity]
	if ok {
		existing.DisplayName = displayName
		existing.MicrophoneEnabled = micEnabled
		r.roster[identity] = existing
	} else {
		r.roster[identity] = Participant{
			Identity:          identity,
			DisplayName:       displayName,
			Role:              resolved,
			MicrophoneEnabled: micEnabled,
		}
		r.rosterIDs = append(r.rosterIDs, identity)
	}
	r.mu.Unlock()

	r.publishStage()
}

func (r *CallRoom) RemoveParticipant(identity string) {
	r.mu.Lock()
	if _, ok := r.roster[identity]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.roster, identity)
	for i, id := range r.rosterIDs {
		if id == identity {
			r.rosterIDs = append(r.rosterIDs[:i], r.rosterIDs[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.publishStage()
}

// Roster returns the mirrored participants in join order.
func (r *CallRoom) Roster() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked()
}

func (r *CallRoom) rosterLocked() []Participant {
	roster := make([]Participant, 0, len(r.rosterIDs))
	for _, id := range r.rosterIDs {
		roster = append(roster, r.roster[id])
	}
	return roster
}

// ApplyBroadcast folds an inbound channel event into local state. from is
// always a peer: the channel never delivers a sender its own message.
func (r *CallRoom) ApplyBroadcast(from string, ev callchan.Event) {
	if _, ok := ev.(callchan.EndCallEvent); ok {
		log.Infof("call ended by %v", from)
		r.teardown()
		r.delegate.OnCallEnded(from)
		return
	}
	r.applyLocal(ev)
}

// ApplyPresence replaces the presence mirror with a flattened snapshot.
func (r *CallRoom) ApplyPresence(records []callchan.PresenceRecord) {
	r.mu.Lock()
	r.present = records
	r.mu.Unlock()

	r.delegate.OnPresenceChanged(utils.PackToByteArray(packPresence(records, r.selfID)))
}

func (r *CallRoom) Present() []callchan.PresenceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.present
}

// applyLocal is the shared reducer step for both inbound events and the
// sender-side application of outbound ones.
func (r *CallRoom) applyLocal(ev callchan.Event) {
	r.perms.Apply(ev)

	if mc, ok := ev.(callchan.MicControlEvent); ok && mc.TargetUserID == r.selfID {
		r.mu.RLock()
		audio := r.audio
		r.mu.RUnlock()
		if audio != nil {
			audio.SetMicrophoneEnabled(mc.Unmute)
		}
		r.delegate.SetMicrophoneEnabled(mc.Unmute)
	}

	r.publishStage()
}

func (r *CallRoom) publish(ev callchan.Event) {
	r.mu.RLock()
	channel := r.channel
	r.mu.RUnlock()
	if channel == nil {
		log.Warnf("no call channel, dropping %v broadcast", ev.Kind())
		return
	}
	// fire and forget: a failed delivery is never retried
	_ = channel.Publish(ev)
}

func (r *CallRoom) publishStage() {
	r.mu.RLock()
	roster := r.rosterLocked()
	r.mu.RUnlock()

	partition := Classify(roster, r.perms)

	state := &DeviceStageState{
		Stage:            make([]*DeviceStageUser, 0, len(partition.Stage)),
		Audience:         make([]*DeviceStageUser, 0, len(partition.Audience)),
		RaisedHandsCount: r.perms.RaisedHandsCount(),
	}
	for _, p := range partition.Stage {
		state.Stage = append(state.Stage, r.packStageUser(p))
	}
	for _, p := range partition.Audience {
		state.Audience = append(state.Audience, r.packStageUser(p))
	}
	for _, u := range append(state.Stage, state.Audience...) {
		if u.IsLocal {
			state.Current = u
			break
		}
	}

	r.delegate.OnStageChanged(utils.PackToByteArray(state))
}

func (r *CallRoom) packStageUser(p Participant) *DeviceStageUser {
	return &DeviceStageUser{
		ID:           p.Identity,
		IsLocal:      p.Identity == r.selfID,
		Name:         p.DisplayName,
		Role:         p.Role.String(),
		IsModerator:  p.Role.IsModerator(),
		IsHandRaised: r.perms.IsHandRaised(p.Identity),
		Audio:        p.MicrophoneEnabled,
	}
}

// teardown is the single exit path: release the microphone, detach the
// channel, disconnect media, then report Ended. Safe to call repeatedly.
func (r *CallRoom) teardown() {
	r.mu.Lock()
	if r.state == CallRoomStateEnded {
		r.mu.Unlock()
		return
	}
	channel := r.channel
	r.channel = nil
	audio := r.audio
	r.audio = nil
	r.setStateLocked(CallRoomStateEnded)
	r.mu.Unlock()

	if audio != nil {
		audio.Close()
	}
	if channel != nil {
		channel.Close()
	}
	r.media.Disconnect()
}

func (r *CallRoom) setStateLocked(newState CallRoomState) {
	if r.state == newState {
		return
	}
	r.state = newState
	log.Infof("call room state=%v", newState.String())
	r.delegate.OnStateChanged(int(newState))
}

func (r *CallRoom) channelReadLoop(conn *callchan.Connection) {
	for {
		typedMessage, rawMessage, err := conn.Read()
		if err != nil {
			if errors.Is(err, callchan.Closed) {
				log.Info("stop call channel read loop")
				return
			} else if errors.Is(err, callchan.UnknownMsgTypeErr) && rawMessage != nil {
				log.Warnf("unknown call channel message: %v", string(rawMessage))
				continue
			}
			log.WithError(err).Warn("cannot read message from call channel")
			time.Sleep(time.Second)
			continue
		}
		switch msg := typedMessage.(type) {
		case *callchan.RegisteredResponseMessage:
			log.Infof("call channel registered, clientId=%v", msg.ClientID)
		case *callchan.BroadcastResponseMessage:
			ev, err := callchan.ParseEvent(msg.Kind, msg.Payload)
			if err != nil {
				log.WithError(err).Warn("cannot parse broadcast")
				continue
			}
			r.ApplyBroadcast(msg.From, ev)
		case *callchan.PresenceResponseMessage:
			r.ApplyPresence(callchan.Flatten(msg.State))
		default:
			log.Warnf("unhandled call channel message %T", typedMessage)
		}
	}
}

func packPresence(records []callchan.PresenceRecord, selfID string) *DevicePresenceState {
	state := &DevicePresenceState{
		Users: make([]*DevicePresenceUser, 0, len(records)),
		Count: len(records),
	}
	for _, rec := range records {
		state.Users = append(state.Users, &DevicePresenceUser{
			ID:      rec.Identity,
			Name:    rec.DisplayName,
			Avatar:  rec.Avatar,
			Role:    rec.Role,
			IsLocal: rec.Identity == selfID,
		})
	}
	return state
}
