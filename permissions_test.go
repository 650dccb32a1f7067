package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teachly/teachly-mobile-common/callchan"
)

func TestRaiseHandIsIdempotent(t *testing.T) {
	perms := NewPermissionStore()

	perms.Apply(callchan.RaiseHandEvent{UserID: "s1", Raised: true})
	first := perms.RaisedHands()

	perms.Apply(callchan.RaiseHandEvent{UserID: "s1", Raised: true})
	assert.Equal(t, first, perms.RaisedHands())
	assert.Equal(t, 1, perms.RaisedHandsCount())

	perms.Apply(callchan.RaiseHandEvent{UserID: "s1", Raised: false})
	perms.Apply(callchan.RaiseHandEvent{UserID: "s1", Raised: false})
	assert.Equal(t, 0, perms.RaisedHandsCount())
}

func TestGrantDoesNotClearRaisedHand(t *testing.T) {
	perms := NewPermissionStore()

	perms.Apply(callchan.RaiseHandEvent{UserID: "s1", Raised: true})
	perms.Apply(callchan.MicControlEvent{TargetUserID: "s1", Unmute: true})

	assert.True(t, perms.HasPermission("s1", RoleStudent))
	assert.True(t, perms.IsHandRaised("s1"), "hand stays raised until explicitly lowered")
}

func TestDuplicateMicControlIsANoOp(t *testing.T) {
	perms := NewPermissionStore()

	perms.Apply(callchan.MicControlEvent{TargetUserID: "s1", Unmute: true})
	perms.Apply(callchan.MicControlEvent{TargetUserID: "s1", Unmute: true})

	assert.True(t, perms.HasPermission("s1", RoleStudent))
}

func TestModeratorImplicitlyGranted(t *testing.T) {
	perms := NewPermissionStore()

	assert.True(t, perms.HasPermission("t1", RoleTeacher))
	assert.True(t, perms.HasPermission("a1", RoleAdmin))
	assert.False(t, perms.HasPermission("s1", RoleStudent))
}
