//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
package store

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/zeebo/blake3"

	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a write violates a uniqueness
	// constraint, such as a second conversation for the same pair.
	ErrConflict = errors.New("store: conflict")
)

type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id objectid.ID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []objectid.ID) ([]models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)

	// Conversation operations
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	FindConversationByParticipants(ctx context.Context, a, b objectid.ID) (*models.Conversation, error)
	GetConversation(ctx context.Context, id objectid.ID) (*models.Conversation, error)
	GetUserConversations(ctx context.Context, userID objectid.ID) ([]models.Conversation, error)

	// Message operations
	SaveMessage(ctx context.Context, message *models.Message) error
	GetMessagesByIDs(ctx context.Context, ids []objectid.ID) ([]models.Message, error)
	GetConversationMessages(ctx context.Context, conversationID objectid.ID) ([]models.Message, error)
}

// PairKey is the normalized key of an unordered participant pair:
// BLAKE3 of the two ids in ascending order. Stores index it as unique
// so that creating the same direct conversation twice cannot succeed.
func PairKey(a, b objectid.ID) string {
	if a.Compare(b) > 0 {
		a, b = b, a
	}
	var buf [2 * len(objectid.Nil)]byte
	copy(buf[:], a[:])
	copy(buf[len(a):], b[:])
	sum := blake3.Sum256(buf[:])
	return hex.EncodeToString(sum[:])
}
