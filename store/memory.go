package store

import (
	"context"
	"sort"
	"sync"

	"github.com/imaxbooking/chat-server/models"
)

// MemoryMessageStore is an in-memory MessageStore. It backs tests and the
// memory store driver. It is safe for concurrent use.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages map[string]models.Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{
		messages: make(map[string]models.Message),
	}
}

func (s *MemoryMessageStore) Insert(ctx context.Context, message models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[message.MessageID]; ok {
		return ErrDuplicateMessage
	}
	s.messages[message.MessageID] = message
	return nil
}

func (s *MemoryMessageStore) Get(ctx context.Context, messageID string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	message, ok := s.messages[messageID]
	if !ok {
		return nil, nil
	}
	return &message, nil
}

func (s *MemoryMessageStore) UpdateFields(ctx context.Context, messageID string, update MessageUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	if update.Body != nil {
		message.Body = *update.Body
	}
	if update.Edited != nil {
		message.Edited = *update.Edited
	}
	if update.Read != nil {
		message.Read = *update.Read
	}
	s.messages[messageID] = message
	return nil
}

func (s *MemoryMessageStore) Delete(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[messageID]; !ok {
		return ErrMessageNotFound
	}
	delete(s.messages, messageID)
	return nil
}

func (s *MemoryMessageStore) QueryRecent(ctx context.Context, filter MessageFilter, limit int) ([]models.Message, error) {
	if limit == 0 {
		limit = defaultQueryLimit
	}
	s.mu.RLock()
	matched := make([]models.Message, 0, len(s.messages))
	for _, message := range s.messages {
		if matchesFilter(&message, filter) {
			matched = append(matched, message)
		}
	}
	s.mu.RUnlock()

	// newest first, truncate to limit, then back to oldest first
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	return matched, nil
}

func matchesFilter(m *models.Message, filter MessageFilter) bool {
	if filter.Participant == "" {
		return true
	}
	if !m.Direct() {
		return true
	}
	return m.SenderID == filter.Participant || *m.RecipientID == filter.Participant
}
