package sqlstore

import (
	"context"
	"fmt"

	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
	"github.com/pliu/roomchat/internal/store"
)

const messageColumns = "id, conversation_id, sender_id, body, created_at"

func scanMessage(row rowScanner) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMessage stores the message and makes it the conversation's latest
// message in one transaction.
func (s *SQLStore) SaveMessage(ctx context.Context, m *models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.rebind("INSERT INTO messages (" + messageColumns + ") VALUES (?, ?, ?, ?, ?)")
	if _, err := tx.ExecContext(ctx, query, m.ID, m.ConversationID, m.SenderID, m.Body, m.CreatedAt.UTC()); err != nil {
		return translate(err)
	}

	query = s.rebind("UPDATE conversations SET latest_message_id = ?, updated_at = ? WHERE id = ?")
	result, err := tx.ExecContext(ctx, query, m.ID, m.CreatedAt.UTC(), m.ConversationID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: conversation %s", store.ErrNotFound, m.ConversationID)
	}
	return tx.Commit()
}

func (s *SQLStore) GetMessagesByIDs(ctx context.Context, ids []objectid.ID) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := s.rebind("SELECT " + messageColumns + " FROM messages WHERE id IN (" + placeholders(len(ids)) + ")")
	return s.queryMessages(ctx, query, args...)
}

// GetConversationMessages returns the conversation's messages, newest first.
func (s *SQLStore) GetConversationMessages(ctx context.Context, conversationID objectid.ID) ([]models.Message, error) {
	query := s.rebind(`
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC
	`)
	return s.queryMessages(ctx, query, conversationID)
}

func (s *SQLStore) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}
