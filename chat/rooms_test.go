package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectRoomID(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		assert.Equal(t, DirectRoomID("alice", "bob"), DirectRoomID("bob", "alice"))
	})

	t.Run("lexicographically smaller id first", func(t *testing.T) {
		assert.Equal(t, "room_alice_bob", DirectRoomID("bob", "alice"))
		assert.Equal(t, "room_alice_bob", DirectRoomID("alice", "bob"))
	})

	t.Run("distinct pairs get distinct rooms", func(t *testing.T) {
		assert.NotEqual(t, DirectRoomID("alice", "bob"), DirectRoomID("alice", "carol"))
	})
}

func TestOwningRoom(t *testing.T) {
	t.Run("no recipient is the global room", func(t *testing.T) {
		assert.Equal(t, GlobalRoom, OwningRoom("alice", nil))
	})

	t.Run("recipient makes a direct room", func(t *testing.T) {
		recipient := "bob"
		assert.Equal(t, "room_alice_bob", OwningRoom("alice", &recipient))
	})
}
