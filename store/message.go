package store

import (
	"context"
	"errors"

	"github.com/imaxbooking/chat-server/models"
)

var (
	// ErrDuplicateMessage is returned when a message with the same messageId
	// has already been inserted.
	ErrDuplicateMessage = errors.New("duplicate message")
	// ErrMessageNotFound is returned when an update or delete references a
	// messageId that does not exist.
	ErrMessageNotFound = errors.New("message not found")
)

// MessageUpdate describes a partial update of a message. Nil fields are left
// untouched. The room affiliation of a message (recipientId) is immutable, so
// it is deliberately absent here.
type MessageUpdate struct {
	Body   *string
	Edited *bool
	Read   *bool
}

// MessageFilter restricts a recent-message query.
type MessageFilter struct {
	// Participant limits the results to messages the given user can see:
	// messages they sent, direct messages addressed to them, and messages
	// sent to the global room. An empty value matches everything.
	Participant string
}

type MessageStore interface {
	// Insert stores a new message. It returns ErrDuplicateMessage if the
	// messageId is already taken.
	Insert(ctx context.Context, message models.Message) error

	// Get returns the message with the given messageId.
	// If the message is not found, it returns nil.
	Get(ctx context.Context, messageID string) (*models.Message, error)

	// UpdateFields applies a partial update to the message.
	// It returns ErrMessageNotFound if the messageId does not exist.
	UpdateFields(ctx context.Context, messageID string, update MessageUpdate) error

	// Delete removes the message. It returns ErrMessageNotFound if the
	// messageId does not exist rather than silently no-oping, so callers can
	// suppress the corresponding broadcast.
	Delete(ctx context.Context, messageID string) error

	// QueryRecent returns up to limit of the most recent messages matching
	// the filter, ordered oldest to newest. Backends fetch newest-first and
	// the ordering is normalized at this boundary, callers must not assume
	// store-native ordering. If limit is a zero value, it defaults to 50.
	QueryRecent(ctx context.Context, filter MessageFilter, limit int) ([]models.Message, error)
}

const defaultQueryLimit = 50
