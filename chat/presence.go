package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/imaxbooking/chat-server/models"
)

// Presence tracks the online/offline status of every user that has connected.
// The session manager is the only writer, but the map is guarded with a mutex
// so the registry stays correct if it is ever driven from more than one
// goroutine (the history endpoint reads it concurrently).
type Presence struct {
	mu      sync.RWMutex
	entries map[string]models.PresenceEntry
}

func NewPresence() *Presence {
	return &Presence{
		entries: make(map[string]models.PresenceEntry),
	}
}

// Join upserts the entry for a user with status online. Calling Join again
// for the same user replaces the connection id and keeps a single entry.
func (p *Presence) Join(userID, connID, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[userID] = models.PresenceEntry{
		UserID:       userID,
		ConnectionID: connID,
		Name:         name,
		Status:       models.StatusOnline,
		LastSeen:     nil,
	}
}

// Leave marks the user offline and stamps lastSeen. It reports whether an
// entry existed. Entries are never removed; a user that left stays visible as
// offline.
func (p *Presence) Leave(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[userID]
	if !ok {
		return false
	}
	now := time.Now()
	entry.Status = models.StatusOffline
	entry.ConnectionID = ""
	entry.LastSeen = &now
	p.entries[userID] = entry
	return true
}

// Get returns the entry for a user.
func (p *Presence) Get(userID string) (models.PresenceEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[userID]
	return entry, ok
}

// Snapshot returns all entries ordered by user id. A non-empty exclude drops
// that user from the result, so clients can render "other online users"
// without filtering themselves out.
func (p *Presence) Snapshot(exclude string) []models.PresenceEntry {
	p.mu.RLock()
	entries := make([]models.PresenceEntry, 0, len(p.entries))
	for userID, entry := range p.entries {
		if exclude != "" && userID == exclude {
			continue
		}
		entries = append(entries, entry)
	}
	p.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UserID < entries[j].UserID
	})
	return entries
}
