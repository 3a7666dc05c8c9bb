package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaxbooking/chat-server/models"
)

func TestPresenceJoin(t *testing.T) {
	t.Run("join makes the user online", func(t *testing.T) {
		p := NewPresence()

		p.Join("u1", "conn1", "Alice")

		entry, ok := p.Get("u1")
		require.True(t, ok)
		assert.Equal(t, "u1", entry.UserID)
		assert.Equal(t, "conn1", entry.ConnectionID)
		assert.Equal(t, "Alice", entry.Name)
		assert.Equal(t, models.StatusOnline, entry.Status)
		assert.Nil(t, entry.LastSeen)
	})

	t.Run("rejoin replaces the connection", func(t *testing.T) {
		p := NewPresence()
		p.Join("u1", "conn1", "Alice")

		p.Join("u1", "conn2", "Alice")

		entry, ok := p.Get("u1")
		require.True(t, ok)
		assert.Equal(t, "conn2", entry.ConnectionID)
		assert.Len(t, p.Snapshot(""), 1, "rejoin must not duplicate the entry")
	})

	t.Run("rejoin after leave clears lastSeen", func(t *testing.T) {
		p := NewPresence()
		p.Join("u1", "conn1", "Alice")
		require.True(t, p.Leave("u1"))

		p.Join("u1", "conn2", "Alice")

		entry, ok := p.Get("u1")
		require.True(t, ok)
		assert.Equal(t, models.StatusOnline, entry.Status)
		assert.Nil(t, entry.LastSeen)
	})
}

func TestPresenceLeave(t *testing.T) {
	t.Run("leave keeps the entry as offline", func(t *testing.T) {
		p := NewPresence()
		p.Join("u1", "conn1", "Alice")

		ok := p.Leave("u1")

		require.True(t, ok)
		entry, found := p.Get("u1")
		require.True(t, found)
		assert.Equal(t, models.StatusOffline, entry.Status)
		assert.Empty(t, entry.ConnectionID)
		require.NotNil(t, entry.LastSeen)
	})

	t.Run("leave of unknown user", func(t *testing.T) {
		p := NewPresence()

		assert.False(t, p.Leave("u1"))
	})
}

func TestPresenceSnapshot(t *testing.T) {
	p := NewPresence()
	p.Join("carol", "conn3", "Carol")
	p.Join("alice", "conn1", "Alice")
	p.Join("bob", "conn2", "Bob")
	require.True(t, p.Leave("bob"))

	t.Run("sorted and complete", func(t *testing.T) {
		entries := p.Snapshot("")

		require.Len(t, entries, 3)
		assert.Equal(t, "alice", entries[0].UserID)
		assert.Equal(t, "bob", entries[1].UserID)
		assert.Equal(t, "carol", entries[2].UserID)
		assert.Equal(t, models.StatusOffline, entries[1].Status)
	})

	t.Run("exclude drops one user", func(t *testing.T) {
		entries := p.Snapshot("bob")

		require.Len(t, entries, 2)
		assert.Equal(t, "alice", entries[0].UserID)
		assert.Equal(t, "carol", entries[1].UserID)
	})
}
