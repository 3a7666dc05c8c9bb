package chat

import (
	"time"
)

// Inbound intent types (client to server).
const (
	EventJoin          = "join"
	EventJoinDirect    = "joinDirect"
	EventJoinGlobal    = "joinGlobal"
	EventSendMessage   = "sendMessage"
	EventTyping        = "typing"
	EventMarkAsRead    = "markAsRead"
	EventEditMessage   = "editMessage"
	EventDeleteMessage = "deleteMessage"
	EventLeave         = "leave"
)

// Outbound event types (server to client).
const (
	EventOnlineUsers    = "onlineUsers"
	EventReceiveMessage = "receiveMessage"
	EventUserTyping     = "userTyping"
	EventMessageRead    = "messageRead"
	EventMessageEdited  = "messageEdited"
	EventMessageDeleted = "messageDeleted"
	EventError          = "error"
)

type JoinDirectPayload struct {
	UserID       string `json:"userId"`
	TargetUserID string `json:"targetUserId" validate:"required"`
}

// SendMessagePayload is the payload of the sendMessage intent. The message id
// and timestamp are client-generated; a missing senderId falls back to the
// authenticated identity of the session.
type SendMessagePayload struct {
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	MessageID   string    `json:"messageId" validate:"required"`
	RecipientID *string   `json:"recipientId"`
	FileURL     *string   `json:"fileUrl"`
	FileType    *string   `json:"fileType"`
}

type TypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type MarkAsReadPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	// RecipientID is the user to notify that their message has been read,
	// i.e. the original sender of the message.
	RecipientID string `json:"recipientId"`
}

type EditMessagePayload struct {
	MessageID  string `json:"messageId" validate:"required"`
	NewMessage string `json:"newMessage" validate:"required"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId" validate:"required"`
}

type MessageReadPayload struct {
	MessageID string `json:"messageId"`
}

type MessageEditedPayload struct {
	MessageID  string `json:"messageId"`
	NewMessage string `json:"newMessage"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
