package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/imaxbooking/chat-server/models"
)

type SQLiteMessageStore struct {
	db *sql.DB
}

func NewSQLiteMessageStore(db *sql.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db}
}

func (s *SQLiteMessageStore) Insert(ctx context.Context, message models.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, sender_id, sender_name, body, recipient_id, ts, read, edited, file_url, file_type)
		VALUES (@message_id, @sender_id, @sender_name, @body, @recipient_id, @ts, @read, @edited, @file_url, @file_type)`,
		sql.Named("message_id", message.MessageID),
		sql.Named("sender_id", message.SenderID),
		sql.Named("sender_name", message.SenderName),
		sql.Named("body", message.Body),
		sql.Named("recipient_id", message.RecipientID),
		sql.Named("ts", message.Timestamp),
		sql.Named("read", message.Read),
		sql.Named("edited", message.Edited),
		sql.Named("file_url", message.FileURL),
		sql.Named("file_type", message.FileType))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("ExecContext(insert messages): %w", err)
	}
	return nil
}

func (s *SQLiteMessageStore) Get(ctx context.Context, messageID string) (*models.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT message_id, sender_id, sender_name, body, recipient_id, ts, read, edited, file_url, file_type
		FROM messages WHERE message_id = @message_id`,
		sql.Named("message_id", messageID))

	message, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}
	return message, nil
}

func (s *SQLiteMessageStore) UpdateFields(ctx context.Context, messageID string, update MessageUpdate) error {
	sets := make([]string, 0, 3)
	args := []interface{}{sql.Named("message_id", messageID)}

	if update.Body != nil {
		sets = append(sets, "body = @body")
		args = append(args, sql.Named("body", *update.Body))
	}
	if update.Edited != nil {
		sets = append(sets, "edited = @edited")
		args = append(args, sql.Named("edited", *update.Edited))
	}
	if update.Read != nil {
		sets = append(sets, "read = @read")
		args = append(args, sql.Named("read", *update.Read))
	}
	if len(sets) == 0 {
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE messages SET %s WHERE message_id = @message_id", strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return fmt.Errorf("ExecContext(update messages): %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RowsAffected: %w", err)
	}
	if affected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *SQLiteMessageStore) Delete(ctx context.Context, messageID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE message_id = @message_id`,
		sql.Named("message_id", messageID))
	if err != nil {
		return fmt.Errorf("ExecContext(delete messages): %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RowsAffected: %w", err)
	}
	if affected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *SQLiteMessageStore) QueryRecent(ctx context.Context, filter MessageFilter, limit int) ([]models.Message, error) {
	if limit == 0 {
		limit = defaultQueryLimit
	}

	query := `SELECT message_id, sender_id, sender_name, body, recipient_id, ts, read, edited, file_url, file_type FROM messages`
	args := []interface{}{sql.Named("limit", limit)}
	if filter.Participant != "" {
		query += ` WHERE recipient_id IS NULL OR sender_id = @participant OR recipient_id = @participant`
		args = append(args, sql.Named("participant", filter.Participant))
	}
	query += ` ORDER BY ts DESC LIMIT @limit`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("QueryContext(messages): %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		messages = append(messages, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	// the query fetches newest first; callers get oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (*models.Message, error) {
	var message models.Message
	if err := row.Scan(&message.MessageID, &message.SenderID, &message.SenderName,
		&message.Body, &message.RecipientID, &message.Timestamp,
		&message.Read, &message.Edited, &message.FileURL, &message.FileType); err != nil {
		return nil, err
	}
	return &message, nil
}
