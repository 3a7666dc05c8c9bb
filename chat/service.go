package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/imaxbooking/chat-server/hub"
	"github.com/imaxbooking/chat-server/models"
	"github.com/imaxbooking/chat-server/store"
)

var validate = validator.New()

var (
	// ErrInvalidPayload is returned when an intent payload is malformed or
	// incomplete. It is reported to the client as an error event.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrSelfRecipient is returned when a direct message or direct room
	// targets the sender themselves.
	ErrSelfRecipient = errors.New("recipient is the sender")
)

// Transport is the delivery surface the session manager drives: channel
// membership and fan-out. *hub.Hub satisfies it.
type Transport interface {
	Subscribe(connID, channel string)
	Unsubscribe(connID, channel string)
	UnsubscribeAll(connID string)
	Broadcast(p *hub.OutPacket)
	BroadcastToChannel(p *hub.OutPacket, channel string)
	BroadcastToClients(p *hub.OutPacket, connIDs ...string)
}

// Service is the session manager. It validates inbound intents, persists
// message mutations through the store and broadcasts the outcome to the room
// each message belongs to. All intent handlers run on the hub goroutine, so
// mutations are processed one at a time: a broadcast is never issued before
// its persistence write has succeeded, and no two mutations of the same
// message can interleave.
type Service struct {
	transport Transport
	store     store.MessageStore
	presence  *Presence
	logger    *slog.Logger
}

func NewService(transport Transport, messageStore store.MessageStore, opts ...ServiceOption) *Service {
	s := &Service{
		transport: transport,
		store:     messageStore,
		presence:  NewPresence(),
		logger: slog.New(slog.NewJSONHandler(os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelInfo})),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// Presence exposes the registry for read-only consumers.
func (s *Service) Presence() *Presence {
	return s.presence
}

// Bind registers the service's intent handlers and lifecycle callbacks on the
// hub.
func (s *Service) Bind(h *hub.Hub) {
	h.Handle(EventJoin, s.HandleJoin)
	h.Handle(EventJoinDirect, s.HandleJoinDirect)
	h.Handle(EventJoinGlobal, s.HandleJoinGlobal)
	h.Handle(EventSendMessage, s.HandleSendMessage)
	h.Handle(EventTyping, s.HandleTyping)
	h.Handle(EventMarkAsRead, s.HandleMarkAsRead)
	h.Handle(EventEditMessage, s.HandleEditMessage)
	h.Handle(EventDeleteMessage, s.HandleDeleteMessage)
	h.Handle(EventLeave, s.HandleLeave)

	h.SetConnectHandler(func(_ *hub.Hub, session hub.Session) error {
		s.logger.Info("user connected", slog.String("user.id", session.UserID))
		return nil
	})
	h.SetDisconnectHandler(func(_ *hub.Hub, session hub.Session) error {
		return s.HandleDisconnect(session)
	})
}

// sendError reports a per-intent failure to the originating connection only.
// Errors never propagate beyond the session that caused them.
func (s *Service) sendError(connID, message string) {
	s.transport.BroadcastToClients(
		hub.NewOutPacket(EventError, ErrorPayload{Message: message}), connID)
}

func (s *Service) broadcastPresence() {
	s.transport.Broadcast(
		hub.NewOutPacket(EventOnlineUsers, s.presence.Snapshot("")))
}

// HandleJoin registers the session in the presence registry, joins the global
// room and pushes the updated presence list to every connection. The payload's
// userId is ignored; the identity verified at connect time is authoritative.
func (s *Service) HandleJoin(req *hub.Request) error {
	session := req.Session
	s.presence.Join(session.UserID, session.ConnID, session.Name)
	s.transport.Subscribe(session.ConnID, GlobalRoom)
	s.broadcastPresence()
	return nil
}

func (s *Service) HandleJoinGlobal(req *hub.Request) error {
	s.transport.Subscribe(req.Session.ConnID, GlobalRoom)
	return nil
}

func (s *Service) HandleJoinDirect(req *hub.Request) error {
	var payload JoinDirectPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		s.sendError(req.Session.ConnID, "invalid joinDirect payload")
		return fmt.Errorf("unmarshal joinDirect: %w", err)
	}
	if err := validate.Struct(&payload); err != nil {
		s.sendError(req.Session.ConnID, "targetUserId is required")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.TargetUserID == req.Session.UserID {
		s.sendError(req.Session.ConnID, "cannot open a direct room with yourself")
		return ErrSelfRecipient
	}

	room := DirectRoomID(req.Session.UserID, payload.TargetUserID)
	s.transport.Subscribe(req.Session.ConnID, room)
	return nil
}

func (s *Service) HandleSendMessage(req *hub.Request) error {
	session := req.Session

	var payload SendMessagePayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		s.sendError(session.ConnID, "invalid sendMessage payload")
		return fmt.Errorf("unmarshal sendMessage: %w", err)
	}

	// the authenticated identity backs any fields the client omitted
	if payload.SenderID == "" {
		payload.SenderID = session.UserID
	}
	if payload.SenderName == "" {
		payload.SenderName = session.Name
	}
	if payload.SenderID == "" {
		s.sendError(session.ConnID, "Sender ID is required")
		return fmt.Errorf("%w: missing senderId", ErrInvalidPayload)
	}
	if err := validate.Struct(&payload); err != nil {
		s.sendError(session.ConnID, "messageId is required")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.Message == "" && payload.FileURL == nil {
		s.sendError(session.ConnID, "message or attachment is required")
		return fmt.Errorf("%w: empty message without attachment", ErrInvalidPayload)
	}
	// an empty recipientId means the global room; store it as absent so every
	// backend's history filter sees the message as global
	if payload.RecipientID != nil && *payload.RecipientID == "" {
		payload.RecipientID = nil
	}
	if payload.RecipientID != nil && *payload.RecipientID == payload.SenderID {
		s.sendError(session.ConnID, "cannot send a direct message to yourself")
		return ErrSelfRecipient
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}

	message := models.Message{
		MessageID:   payload.MessageID,
		SenderID:    payload.SenderID,
		SenderName:  payload.SenderName,
		Body:        payload.Message,
		RecipientID: payload.RecipientID,
		Timestamp:   payload.Timestamp,
		Read:        false,
		Edited:      false,
		FileURL:     payload.FileURL,
		FileType:    payload.FileType,
	}

	// persist first; the broadcast must not fire for a message that was
	// never stored
	if err := s.store.Insert(req.Context(), message); err != nil {
		if errors.Is(err, store.ErrDuplicateMessage) {
			s.sendError(session.ConnID, "duplicate message id")
			return fmt.Errorf("insert message %s: %w", message.MessageID, err)
		}
		s.sendError(session.ConnID, "Failed to save message")
		return fmt.Errorf("insert message %s: %w", message.MessageID, err)
	}

	s.transport.BroadcastToChannel(
		hub.NewOutPacket(EventReceiveMessage, message),
		OwningRoom(message.SenderID, message.RecipientID))
	return nil
}

// HandleTyping relays the ephemeral typing state to every session. It is
// never persisted.
func (s *Service) HandleTyping(req *hub.Request) error {
	var payload TypingPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		s.sendError(req.Session.ConnID, "invalid typing payload")
		return fmt.Errorf("unmarshal typing: %w", err)
	}
	if payload.UserID == "" {
		payload.UserID = req.Session.UserID
	}
	s.transport.Broadcast(hub.NewOutPacket(EventUserTyping, payload))
	return nil
}

func (s *Service) HandleMarkAsRead(req *hub.Request) error {
	var payload MarkAsReadPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		s.sendError(req.Session.ConnID, "invalid markAsRead payload")
		return fmt.Errorf("unmarshal markAsRead: %w", err)
	}
	if err := validate.Struct(&payload); err != nil {
		s.sendError(req.Session.ConnID, "messageId is required")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	read := true
	if err := s.store.UpdateFields(req.Context(), payload.MessageID, store.MessageUpdate{Read: &read}); err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			s.sendError(req.Session.ConnID, "message not found")
			return fmt.Errorf("mark read %s: %w", payload.MessageID, err)
		}
		s.sendError(req.Session.ConnID, "Failed to mark message as read")
		return fmt.Errorf("mark read %s: %w", payload.MessageID, err)
	}

	// notify the original sender, if they are online
	if entry, ok := s.presence.Get(payload.RecipientID); ok && entry.Status == models.StatusOnline && entry.ConnectionID != "" {
		s.transport.BroadcastToClients(
			hub.NewOutPacket(EventMessageRead, MessageReadPayload{MessageID: payload.MessageID}),
			entry.ConnectionID)
	}
	return nil
}

func (s *Service) HandleEditMessage(req *hub.Request) error {
	var payload EditMessagePayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		s.sendError(req.Session.ConnID, "invalid editMessage payload")
		return fmt.Errorf("unmarshal editMessage: %w", err)
	}
	if err := validate.Struct(&payload); err != nil {
		s.sendError(req.Session.ConnID, "messageId and newMessage are required")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// the owning room comes from the stored message, never from the rooms
	// the editing session is joined to
	message, err := s.getMessage(req.Context(), req.Session.ConnID, payload.MessageID)
	if err != nil {
		return err
	}

	edited := true
	update := store.MessageUpdate{Body: &payload.NewMessage, Edited: &edited}
	if err := s.store.UpdateFields(req.Context(), payload.MessageID, update); err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			s.sendError(req.Session.ConnID, "message not found")
			return fmt.Errorf("edit message %s: %w", payload.MessageID, err)
		}
		s.sendError(req.Session.ConnID, "Failed to edit message")
		return fmt.Errorf("edit message %s: %w", payload.MessageID, err)
	}

	s.transport.BroadcastToChannel(
		hub.NewOutPacket(EventMessageEdited, MessageEditedPayload{
			MessageID:  payload.MessageID,
			NewMessage: payload.NewMessage,
		}),
		OwningRoom(message.SenderID, message.RecipientID))
	return nil
}

func (s *Service) HandleDeleteMessage(req *hub.Request) error {
	var payload DeleteMessagePayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		s.sendError(req.Session.ConnID, "invalid deleteMessage payload")
		return fmt.Errorf("unmarshal deleteMessage: %w", err)
	}
	if err := validate.Struct(&payload); err != nil {
		s.sendError(req.Session.ConnID, "messageId is required")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	message, err := s.getMessage(req.Context(), req.Session.ConnID, payload.MessageID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(req.Context(), payload.MessageID); err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			s.sendError(req.Session.ConnID, "message not found")
			return fmt.Errorf("delete message %s: %w", payload.MessageID, err)
		}
		s.sendError(req.Session.ConnID, "Failed to delete message")
		return fmt.Errorf("delete message %s: %w", payload.MessageID, err)
	}

	s.transport.BroadcastToChannel(
		hub.NewOutPacket(EventMessageDeleted, MessageDeletedPayload{MessageID: payload.MessageID}),
		OwningRoom(message.SenderID, message.RecipientID))
	return nil
}

func (s *Service) HandleLeave(req *hub.Request) error {
	if s.presence.Leave(req.Session.UserID) {
		s.broadcastPresence()
	}
	return nil
}

// HandleDisconnect runs on the transport-level disconnect: the user goes
// offline, every room membership of the connection is released and the
// updated presence list is pushed to the remaining sessions.
func (s *Service) HandleDisconnect(session hub.Session) error {
	s.transport.UnsubscribeAll(session.ConnID)
	if s.presence.Leave(session.UserID) {
		s.broadcastPresence()
	}
	s.logger.Info("user disconnected", slog.String("user.id", session.UserID))
	return nil
}

// getMessage loads a message for a mutation, reporting a not-found error to
// the session and returning a non-nil error when the message does not exist
// so the caller emits no broadcast.
func (s *Service) getMessage(ctx context.Context, connID, messageID string) (*models.Message, error) {
	message, err := s.store.Get(ctx, messageID)
	if err != nil {
		s.sendError(connID, "Failed to load message")
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	if message == nil {
		s.sendError(connID, "message not found")
		return nil, fmt.Errorf("get message %s: %w", messageID, store.ErrMessageNotFound)
	}
	return message, nil
}
