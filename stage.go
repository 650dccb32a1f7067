package common

import (
	"encoding/json"
	"fmt"
)

// Role is resolved once from the metadata attached to a participant at join
// and treated as immutable for the call's duration.
type Role int

const (
	RoleStudent Role = iota
	RoleTeacher
	RoleAdmin
)

var roleStrings = [...]string{"student", "teacher", "admin"}

func (r Role) String() string {
	return roleStrings[r]
}

func RoleFromString(s string) (Role, error) {
	for i, v := range roleStrings {
		if v == s {
			return Role(i), nil
		}
	}
	return -1, fmt.Errorf("unknown Role(%v)", s)
}

// IsModerator reports whether this role may grant and revoke speaking
// permission, end the call for everyone, and flip the durable call flag.
func (r Role) IsModerator() bool {
	return r == RoleTeacher || r == RoleAdmin
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	} else if role, err := RoleFromString(s); err != nil {
		return err
	} else {
		*r = role
		return nil
	}
}

// Participant is one person connected to the call. Owned by the media
// transport; the room mirrors it as read-only input keyed by Identity.
type Participant struct {
	Identity          string
	DisplayName       string
	Role              Role
	MicrophoneEnabled bool
}

type StagePartition struct {
	Stage    []Participant
	Audience []Participant
}

// Classify partitions the roster into stage and audience: moderators are
// always on stage, everyone else needs a granted speaking permission. Pure:
// callers recompute it from scratch on every roster or permission change,
// nothing is cached between calls.
func Classify(roster []Participant, perms *PermissionStore) StagePartition {
	partition := StagePartition{
		Stage:    make([]Participant, 0, len(roster)),
		Audience: make([]Participant, 0, len(roster)),
	}
	for _, p := range roster {
		if perms.HasPermission(p.Identity, p.Role) {
			partition.Stage = append(partition.Stage, p)
		} else {
			partition.Audience = append(partition.Audience, p)
		}
	}
	return partition
}
