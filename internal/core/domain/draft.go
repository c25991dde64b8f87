package domain

import "time"

// DraftSnapshot is the sole unit persisted to the external draft store.
type DraftSnapshot struct {
	FormData    map[string]string `json:"form_data"`
	CurrentStep int               `json:"current_step"`
	SavedAt     time.Time         `json:"saved_at"`
}

// Equal compares two snapshots by value, ignoring SavedAt. The draft
// manager uses it to decide whether a write would be a no-op.
func (d DraftSnapshot) Equal(other DraftSnapshot) bool {
	if d.CurrentStep != other.CurrentStep || len(d.FormData) != len(other.FormData) {
		return false
	}
	for k, v := range d.FormData {
		if other.FormData[k] != v {
			return false
		}
	}
	return true
}
