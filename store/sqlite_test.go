package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaxbooking/chat-server/models"
)

type sqliteFixture struct {
	store    *SQLiteMessageStore
	db       *sql.DB
	ctx      context.Context
	tearDown func()
}

func newSQLiteFixture(t *testing.T) *sqliteFixture {
	ctx, cancel := context.WithCancel(context.Background())

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// a second connection would see a different in-memory database
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(os.DirFS("../migrations"))
	if err := goose.SetDialect("sqlite3"); err != nil {
		t.Fatal(err)
	}
	if err := goose.Up(db, "."); err != nil {
		t.Fatal(err)
	}

	return &sqliteFixture{
		store: NewSQLiteMessageStore(db),
		db:    db,
		ctx:   ctx,
		tearDown: func() {
			cancel()
			db.Close()
		},
	}
}

func seedMessages(t *testing.T, f *sqliteFixture, messages ...models.Message) {
	for _, m := range messages {
		if err := f.store.Insert(f.ctx, m); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSQLiteInsert(t *testing.T) {
	t.Run("insert and read back", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		fileURL := "https://cdn.example.com/poster.png"
		fileType := "image/png"
		m := newDirectMessage("m1", "u1", "u2", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		m.FileURL = &fileURL
		m.FileType = &fileType

		err := f.store.Insert(f.ctx, m)

		require.Nil(t, err)
		got, err := f.store.Get(f.ctx, "m1")
		require.Nil(t, err)
		require.NotNil(t, got)
		assert.Equal(t, m.MessageID, got.MessageID)
		assert.Equal(t, m.SenderID, got.SenderID)
		assert.Equal(t, m.SenderName, got.SenderName)
		assert.Equal(t, m.Body, got.Body)
		require.NotNil(t, got.RecipientID)
		assert.Equal(t, *m.RecipientID, *got.RecipientID)
		assert.True(t, m.Timestamp.Equal(got.Timestamp))
		assert.False(t, got.Read)
		assert.False(t, got.Edited)
		require.NotNil(t, got.FileURL)
		assert.Equal(t, fileURL, *got.FileURL)
		require.NotNil(t, got.FileType)
		assert.Equal(t, fileType, *got.FileType)
	})

	t.Run("global message has null recipient", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		seedMessages(t, f, newGlobalMessage("m1", "u1", time.Now().UTC()))

		got, err := f.store.Get(f.ctx, "m1")

		require.Nil(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.RecipientID)
		assert.Nil(t, got.FileURL)
	})

	t.Run("duplicate message id", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		seedMessages(t, f, newGlobalMessage("m1", "u1", time.Now().UTC()))

		err := f.store.Insert(f.ctx, newGlobalMessage("m1", "u2", time.Now().UTC()))

		require.ErrorIs(t, err, ErrDuplicateMessage)
	})
}

func TestSQLiteGet(t *testing.T) {
	f := newSQLiteFixture(t)
	defer f.tearDown()

	got, err := f.store.Get(f.ctx, "missing")

	require.Nil(t, err)
	assert.Nil(t, got)
}

func TestSQLiteUpdateFields(t *testing.T) {
	t.Run("edit body", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		seedMessages(t, f, newGlobalMessage("m1", "u1", time.Now().UTC()))

		body := "edited body"
		edited := true
		err := f.store.UpdateFields(f.ctx, "m1", MessageUpdate{Body: &body, Edited: &edited})

		require.Nil(t, err)
		got, err := f.store.Get(f.ctx, "m1")
		require.Nil(t, err)
		assert.Equal(t, body, got.Body)
		assert.True(t, got.Edited)
		assert.False(t, got.Read)
	})

	t.Run("mark read", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		m := newDirectMessage("m1", "u1", "u2", time.Now().UTC())
		seedMessages(t, f, m)

		read := true
		err := f.store.UpdateFields(f.ctx, "m1", MessageUpdate{Read: &read})

		require.Nil(t, err)
		got, err := f.store.Get(f.ctx, "m1")
		require.Nil(t, err)
		assert.True(t, got.Read)
		assert.Equal(t, m.Body, got.Body)
	})

	t.Run("no fields is a no-op", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()

		err := f.store.UpdateFields(f.ctx, "missing", MessageUpdate{})

		require.Nil(t, err)
	})

	t.Run("unknown message id", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()

		read := true
		err := f.store.UpdateFields(f.ctx, "missing", MessageUpdate{Read: &read})

		require.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestSQLiteDelete(t *testing.T) {
	t.Run("delete existing message", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		seedMessages(t, f, newGlobalMessage("m1", "u1", time.Now().UTC()))

		err := f.store.Delete(f.ctx, "m1")

		require.Nil(t, err)
		got, err := f.store.Get(f.ctx, "m1")
		require.Nil(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown message id", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()

		err := f.store.Delete(f.ctx, "missing")

		require.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestSQLiteQueryRecent(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ordered oldest to newest with limit", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		seedMessages(t, f,
			newGlobalMessage("m1", "u1", base.Add(1*time.Minute)),
			newGlobalMessage("m3", "u1", base.Add(3*time.Minute)),
			newGlobalMessage("m2", "u2", base.Add(2*time.Minute)))

		messages, err := f.store.QueryRecent(f.ctx, MessageFilter{}, 2)

		require.Nil(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "m2", messages[0].MessageID)
		assert.Equal(t, "m3", messages[1].MessageID)
	})

	t.Run("participant filter includes global and own direct messages", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()
		seedMessages(t, f,
			newGlobalMessage("global", "u3", base),
			newDirectMessage("sent", "u1", "u2", base.Add(time.Minute)),
			newDirectMessage("received", "u2", "u1", base.Add(2*time.Minute)),
			newDirectMessage("other", "u2", "u3", base.Add(3*time.Minute)))

		messages, err := f.store.QueryRecent(f.ctx, MessageFilter{Participant: "u1"}, 0)

		require.Nil(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "global", messages[0].MessageID)
		assert.Equal(t, "sent", messages[1].MessageID)
		assert.Equal(t, "received", messages[2].MessageID)
	})

	t.Run("empty table", func(t *testing.T) {
		f := newSQLiteFixture(t)
		defer f.tearDown()

		messages, err := f.store.QueryRecent(f.ctx, MessageFilter{}, 0)

		require.Nil(t, err)
		assert.Len(t, messages, 0)
	})
}
