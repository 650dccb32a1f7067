package common

import (
	"sync"

	"github.com/teachly/teachly-mobile-common/callchan"
	"github.com/teachly/teachly-mobile-common/utils"
)

// PermissionStore holds one call room's volatile speaking state: the
// per-participant permission map and the raised-hand set. Nothing here is
// persisted; the state dies with the room. Entries are never deleted: a
// stale entry for a departed participant is never read once the participant
// left the roster.
type PermissionStore struct {
	mu      sync.RWMutex
	granted map[string]bool
	hands   utils.StringSet
}

func NewPermissionStore() *PermissionStore {
	return &PermissionStore{
		granted: map[string]bool{},
		hands:   utils.NewStringSet(),
	}
}

func (s *PermissionStore) Grant(participantID string) {
	s.setPermission(participantID, true)
}

func (s *PermissionStore) Revoke(participantID string) {
	s.setPermission(participantID, false)
}

func (s *PermissionStore) setPermission(participantID string, granted bool) {
	s.mu.Lock()
	s.granted[participantID] = granted
	s.mu.Unlock()
}

// HasPermission reports whether the participant may transmit audio. A
// moderator is implicitly granted regardless of map contents; the map only
// governs non-privileged participants.
func (s *PermissionStore) HasPermission(participantID string, role Role) bool {
	if role.IsModerator() {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.granted[participantID]
}

func (s *PermissionStore) SetHandRaised(participantID string, raised bool) {
	s.mu.Lock()
	if raised {
		s.hands.Add(participantID)
	} else {
		s.hands.Remove(participantID)
	}
	s.mu.Unlock()
}

func (s *PermissionStore) IsHandRaised(participantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hands.Contains(participantID)
}

func (s *PermissionStore) RaisedHands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hands.GetSlice()
}

func (s *PermissionStore) RaisedHandsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hands)
}

// Apply folds one broadcast event into the store. Every event is written to
// be idempotent, so replays and the sender's own at-send application are
// harmless. Granting permission deliberately leaves a raised hand up; only
// an explicit raise_hand{raised:false} lowers it.
func (s *PermissionStore) Apply(ev callchan.Event) {
	switch ev := ev.(type) {
	case callchan.RaiseHandEvent:
		s.SetHandRaised(ev.UserID, ev.Raised)
	case callchan.MicControlEvent:
		s.setPermission(ev.TargetUserID, ev.Unmute)
	}
	// end_call carries no permission state
}
