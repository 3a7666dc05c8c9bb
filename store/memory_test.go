package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaxbooking/chat-server/models"
)

func newGlobalMessage(id, sender string, ts time.Time) models.Message {
	return models.Message{
		MessageID:  id,
		SenderID:   sender,
		SenderName: "Sender " + sender,
		Body:       "hello from " + sender,
		Timestamp:  ts,
	}
}

func newDirectMessage(id, sender, recipient string, ts time.Time) models.Message {
	m := newGlobalMessage(id, sender, ts)
	m.RecipientID = &recipient
	return m
}

func TestMemoryInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("insert new message", func(t *testing.T) {
		s := NewMemoryMessageStore()
		m := newGlobalMessage("m1", "u1", time.Now())

		err := s.Insert(ctx, m)

		require.Nil(t, err)
		got, err := s.Get(ctx, "m1")
		require.Nil(t, err)
		require.NotNil(t, got)
		assert.Equal(t, m, *got)
	})

	t.Run("duplicate message id", func(t *testing.T) {
		s := NewMemoryMessageStore()
		m := newGlobalMessage("m1", "u1", time.Now())
		require.Nil(t, s.Insert(ctx, m))

		dup := newGlobalMessage("m1", "u2", time.Now())
		err := s.Insert(ctx, dup)

		require.ErrorIs(t, err, ErrDuplicateMessage)
		got, err := s.Get(ctx, "m1")
		require.Nil(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "u1", got.SenderID, "the original message must survive")
	})
}

func TestMemoryGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMessageStore()

	got, err := s.Get(ctx, "missing")

	require.Nil(t, err)
	assert.Nil(t, got)
}

func TestMemoryUpdateFields(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update", func(t *testing.T) {
		s := NewMemoryMessageStore()
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m1", "u1", time.Now())))

		body := "edited body"
		edited := true
		err := s.UpdateFields(ctx, "m1", MessageUpdate{Body: &body, Edited: &edited})

		require.Nil(t, err)
		got, err := s.Get(ctx, "m1")
		require.Nil(t, err)
		require.NotNil(t, got)
		assert.Equal(t, body, got.Body)
		assert.True(t, got.Edited)
		assert.False(t, got.Read, "untouched fields keep their value")
	})

	t.Run("read flag only", func(t *testing.T) {
		s := NewMemoryMessageStore()
		m := newDirectMessage("m1", "u1", "u2", time.Now())
		require.Nil(t, s.Insert(ctx, m))

		read := true
		err := s.UpdateFields(ctx, "m1", MessageUpdate{Read: &read})

		require.Nil(t, err)
		got, err := s.Get(ctx, "m1")
		require.Nil(t, err)
		assert.True(t, got.Read)
		assert.Equal(t, m.Body, got.Body)
		assert.False(t, got.Edited)
	})

	t.Run("unknown message id", func(t *testing.T) {
		s := NewMemoryMessageStore()

		read := true
		err := s.UpdateFields(ctx, "missing", MessageUpdate{Read: &read})

		require.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete existing message", func(t *testing.T) {
		s := NewMemoryMessageStore()
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m1", "u1", time.Now())))

		err := s.Delete(ctx, "m1")

		require.Nil(t, err)
		got, err := s.Get(ctx, "m1")
		require.Nil(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown message id", func(t *testing.T) {
		s := NewMemoryMessageStore()

		err := s.Delete(ctx, "missing")

		require.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestMemoryQueryRecent(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ordered oldest to newest", func(t *testing.T) {
		s := NewMemoryMessageStore()
		// inserted out of order on purpose
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m3", "u1", base.Add(3*time.Minute))))
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m1", "u1", base.Add(1*time.Minute))))
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m2", "u2", base.Add(2*time.Minute))))

		messages, err := s.QueryRecent(ctx, MessageFilter{}, 0)

		require.Nil(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "m1", messages[0].MessageID)
		assert.Equal(t, "m2", messages[1].MessageID)
		assert.Equal(t, "m3", messages[2].MessageID)
	})

	t.Run("limit keeps the most recent", func(t *testing.T) {
		s := NewMemoryMessageStore()
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m1", "u1", base.Add(1*time.Minute))))
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m2", "u1", base.Add(2*time.Minute))))
		require.Nil(t, s.Insert(ctx, newGlobalMessage("m3", "u1", base.Add(3*time.Minute))))

		messages, err := s.QueryRecent(ctx, MessageFilter{}, 2)

		require.Nil(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "m2", messages[0].MessageID)
		assert.Equal(t, "m3", messages[1].MessageID)
	})

	t.Run("participant filter", func(t *testing.T) {
		s := NewMemoryMessageStore()
		require.Nil(t, s.Insert(ctx, newGlobalMessage("global", "u3", base)))
		require.Nil(t, s.Insert(ctx, newDirectMessage("sent", "u1", "u2", base.Add(time.Minute))))
		require.Nil(t, s.Insert(ctx, newDirectMessage("received", "u2", "u1", base.Add(2*time.Minute))))
		require.Nil(t, s.Insert(ctx, newDirectMessage("other", "u2", "u3", base.Add(3*time.Minute))))

		messages, err := s.QueryRecent(ctx, MessageFilter{Participant: "u1"}, 0)

		require.Nil(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "global", messages[0].MessageID)
		assert.Equal(t, "sent", messages[1].MessageID)
		assert.Equal(t, "received", messages[2].MessageID)
	})

	t.Run("empty store", func(t *testing.T) {
		s := NewMemoryMessageStore()

		messages, err := s.QueryRecent(ctx, MessageFilter{}, 0)

		require.Nil(t, err)
		assert.Len(t, messages, 0)
	})
}
