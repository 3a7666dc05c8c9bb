package models

import (
	"time"
)

// Message represents a single chat message. The wire representation matches
// what clients send in the sendMessage intent, so the same struct is used for
// the receiveMessage broadcast and the history endpoint.
type Message struct {
	// MessageID is the client-generated identifier of the message.
	// It is the persistence key and is stable across edits and deletes.
	MessageID  string `json:"messageId" bson:"message_id"`
	SenderID   string `json:"senderId" bson:"sender_id"`
	SenderName string `json:"senderName" bson:"sender_name"`
	// Body is the text content of the message. It may be empty
	// if the message carries an attachment.
	Body string `json:"message" bson:"message"`
	// RecipientID is nil for messages sent to the global room. For direct
	// messages it is the id of the other participant. It never changes after
	// the message is created, so the room a message belongs to is fixed.
	RecipientID *string   `json:"recipientId" bson:"recipient_id"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	Read        bool      `json:"read" bson:"read"`
	Edited      bool      `json:"edited" bson:"edited"`
	FileURL     *string   `json:"fileUrl,omitempty" bson:"file_url,omitempty"`
	FileType    *string   `json:"fileType,omitempty" bson:"file_type,omitempty"`
}

// Direct reports whether the message belongs to a direct room rather than the
// global room.
func (m *Message) Direct() bool {
	return m.RecipientID != nil && *m.RecipientID != ""
}
