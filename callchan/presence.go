package callchan

import "sort"

// PresenceRecord is the "I am here" payload every call member announces
// once its channel connection is up. It is tracked only while the
// underlying connection lives; the channel service retracts it on
// disconnect, no explicit leave message exists.
type PresenceRecord struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	Role        string `json:"role"`
}

// Flatten collapses the channel's per-key multi-value snapshot into one
// record per identity. Records without an identity are dropped; duplicate
// records for one identity (a client mid-reconnect can hold two) keep the
// first one seen.
func Flatten(state map[string][]PresenceRecord) []PresenceRecord {
	seen := make(map[string]struct{}, len(state))
	out := make([]PresenceRecord, 0, len(state))
	for _, records := range state {
		for _, rec := range records {
			if rec.Identity == "" {
				continue
			}
			if _, ok := seen[rec.Identity]; ok {
				continue
			}
			seen[rec.Identity] = struct{}{}
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}
