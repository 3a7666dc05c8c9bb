package chat

// GlobalRoom is the channel every session joins on the join intent. Messages
// with no recipientId belong to it.
const GlobalRoom = "globalChat"

// DirectRoomID returns the channel id for the direct room between two users.
// The id is deterministic and order-independent:
// DirectRoomID(a, b) == DirectRoomID(b, a).
func DirectRoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "room_" + a + "_" + b
}

// OwningRoom resolves the room a message belongs to: the global room when the
// message has no recipient, otherwise the direct room of its sender/recipient
// pair. The result depends only on fields fixed at creation, so edits and
// deletes always broadcast to the same room the message was delivered to.
func OwningRoom(senderID string, recipientID *string) string {
	if recipientID == nil || *recipientID == "" {
		return GlobalRoom
	}
	return DirectRoomID(senderID, *recipientID)
}
