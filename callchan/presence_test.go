package callchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenSortsByIdentity(t *testing.T) {
	state := map[string][]PresenceRecord{
		"c2": {{Identity: "s2", DisplayName: "Zoe"}},
		"c1": {{Identity: "s1", DisplayName: "Ann"}},
		"c3": {{Identity: "t1", DisplayName: "Mr. K", Role: "teacher"}},
	}

	out := Flatten(state)
	assert.Equal(t, []string{"s1", "s2", "t1"}, identities(out))
}

func TestFlattenDropsEmptyIdentity(t *testing.T) {
	state := map[string][]PresenceRecord{
		"c1": {{Identity: "", DisplayName: "ghost"}, {Identity: "s1", DisplayName: "Ann"}},
	}

	out := Flatten(state)
	assert.Equal(t, []PresenceRecord{{Identity: "s1", DisplayName: "Ann"}}, out)
}

func TestFlattenDeduplicatesReconnectingClient(t *testing.T) {
	// A reconnecting client briefly holds records under two channel keys.
	state := map[string][]PresenceRecord{
		"old": {{Identity: "s1", DisplayName: "Ann"}},
		"new": {{Identity: "s1", DisplayName: "Ann"}},
	}

	out := Flatten(state)
	assert.Len(t, out, 1)
	assert.Equal(t, "s1", out[0].Identity)
}

func TestFlattenKeepsDistinctIdentitiesUnderOneKey(t *testing.T) {
	state := map[string][]PresenceRecord{
		"c1": {
			{Identity: "s1", DisplayName: "Ann"},
			{Identity: "s2", DisplayName: "Zoe"},
			{Identity: "s1", DisplayName: "Ann again"},
		},
	}

	out := Flatten(state)
	assert.Equal(t, []string{"s1", "s2"}, identities(out))
	assert.Equal(t, "Ann", out[0].DisplayName)
}

func TestFlattenEmptyState(t *testing.T) {
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten(map[string][]PresenceRecord{}))
}

func identities(records []PresenceRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Identity)
	}
	return out
}
