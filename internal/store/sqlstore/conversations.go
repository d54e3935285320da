package sqlstore

import (
	"context"

	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
	"github.com/pliu/roomchat/internal/store"
)

const conversationColumns = "id, room_id, room, first_participant, second_participant, creator_id, latest_message_id, created_at, updated_at"

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var (
		c             models.Conversation
		first, second objectid.ID
	)
	err := row.Scan(&c.ID, &c.RoomID, &c.Room, &first, &second, &c.Creator, &c.LatestMessage, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Participants = []objectid.ID{first, second}
	return &c, nil
}

// CreateConversation inserts a direct conversation. The pair key is
// unique, so a second conversation for the same two participants
// fails with store.ErrConflict even when two requests race past the
// existence check.
func (s *SQLStore) CreateConversation(ctx context.Context, c *models.Conversation) error {
	if len(c.Participants) != 2 {
		return store.ErrConflict
	}
	query := s.rebind(`
		INSERT INTO conversations (id, room_id, room, first_participant, second_participant, pair_key, creator_id, latest_message_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.RoomID, c.Room,
		c.Participants[0], c.Participants[1], store.PairKey(c.Participants[0], c.Participants[1]),
		c.Creator, nullableID(c.LatestMessage), c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	return translate(err)
}

func (s *SQLStore) FindConversationByParticipants(ctx context.Context, a, b objectid.ID) (*models.Conversation, error) {
	query := s.rebind("SELECT " + conversationColumns + " FROM conversations WHERE pair_key = ?")
	c, err := scanConversation(s.db.QueryRowContext(ctx, query, store.PairKey(a, b)))
	return c, translate(err)
}

func (s *SQLStore) GetConversation(ctx context.Context, id objectid.ID) (*models.Conversation, error) {
	query := s.rebind("SELECT " + conversationColumns + " FROM conversations WHERE id = ?")
	c, err := scanConversation(s.db.QueryRowContext(ctx, query, id))
	return c, translate(err)
}

// GetUserConversations returns every conversation userID takes part in,
// most recently updated first.
func (s *SQLStore) GetUserConversations(ctx context.Context, userID objectid.ID) ([]models.Conversation, error) {
	query := s.rebind(`
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE first_participant = ? OR second_participant = ?
		ORDER BY updated_at DESC, id DESC
	`)
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *c)
	}
	return conversations, rows.Err()
}

func nullableID(id *objectid.ID) any {
	if id == nil {
		return nil
	}
	return *id
}
