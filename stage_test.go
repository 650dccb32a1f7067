package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachly/teachly-mobile-common/callchan"
)

func participantIDs(list []Participant) []string {
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.Identity)
	}
	return ids
}

func TestClassifyModeratorsAlwaysOnStage(t *testing.T) {
	roster := []Participant{
		{Identity: "t1", Role: RoleTeacher},
		{Identity: "a1", Role: RoleAdmin},
		{Identity: "s1", Role: RoleStudent},
	}
	perms := NewPermissionStore()
	// even a revoked moderator stays on stage
	perms.Revoke("t1")
	perms.Revoke("a1")

	partition := Classify(roster, perms)

	assert.Equal(t, []string{"t1", "a1"}, participantIDs(partition.Stage))
	assert.Equal(t, []string{"s1"}, participantIDs(partition.Audience))
}

func TestClassifyStudentFollowsLatestMicControl(t *testing.T) {
	roster := []Participant{
		{Identity: "s1", Role: RoleStudent},
	}
	perms := NewPermissionStore()

	partition := Classify(roster, perms)
	assert.Empty(t, partition.Stage, "never granted student starts in audience")

	perms.Apply(callchan.MicControlEvent{TargetUserID: "s1", Unmute: true})
	partition = Classify(roster, perms)
	assert.Equal(t, []string{"s1"}, participantIDs(partition.Stage))

	perms.Apply(callchan.MicControlEvent{TargetUserID: "s1", Unmute: false})
	partition = Classify(roster, perms)
	assert.Equal(t, []string{"s1"}, participantIDs(partition.Audience))
}

func TestClassifyIsPureAndRepeatable(t *testing.T) {
	roster := []Participant{
		{Identity: "t1", Role: RoleTeacher},
		{Identity: "s1", Role: RoleStudent},
		{Identity: "s2", Role: RoleStudent},
	}
	perms := NewPermissionStore()
	perms.Grant("s2")

	first := Classify(roster, perms)
	second := Classify(roster, perms)
	assert.Equal(t, first, second)
}

func TestRoleFromString(t *testing.T) {
	role, err := RoleFromString("teacher")
	require.NoError(t, err)
	assert.True(t, role.IsModerator())

	role, err = RoleFromString("student")
	require.NoError(t, err)
	assert.False(t, role.IsModerator())

	_, err = RoleFromString("janitor")
	assert.Error(t, err)
}
