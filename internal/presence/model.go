package presence

import "time"

type Status string

const (
	StatusOnline    Status = "online"
	StatusAway      Status = "away"
	StatusBusy      Status = "busy"
	StatusInvisible Status = "invisible"
	StatusOffline   Status = "offline"
)

// ClientSettable reports whether a connected client may ask for this status.
// Offline is forced by disconnect and invisible is an administrative state;
// neither can be requested over the wire.
func (s Status) ClientSettable() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy:
		return true
	}
	return false
}

// Record is the durable presence row for one user. It is upserted on every
// connect, status change and disconnect, and never deleted.
type Record struct {
	UserID       string    `json:"user_id"`
	Status       Status    `json:"status"`
	LastSeen     time.Time `json:"last_seen"`
	ConnectionID string    `json:"connection_id,omitempty"`
}
