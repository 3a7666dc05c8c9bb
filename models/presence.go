package models

import "time"

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// PresenceEntry is the ephemeral online/offline record of a user. One entry
// exists per user that has connected at least once; entries are never removed,
// they transition to offline with a lastSeen timestamp instead.
type PresenceEntry struct {
	UserID string `json:"userId"`
	// ConnectionID is the id of the user's active connection.
	// It is empty while the user is offline.
	ConnectionID string         `json:"connectionId"`
	Name         string         `json:"name"`
	Status       PresenceStatus `json:"status"`
	// LastSeen is nil while the user is online.
	LastSeen *time.Time `json:"lastSeen"`
}
