package sqlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

var baseTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newConversation(first, second objectid.ID, at time.Time) *models.Conversation {
	return &models.Conversation{
		ID:           objectid.New(),
		RoomID:       "room-" + objectid.New().String(),
		Room:         "sealed",
		Participants: []objectid.ID{first, second},
		Creator:      first,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driverName: "pgx"}
	require.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	lite := &SQLStore{driverName: "sqlite3"}
	require.Equal(t, "SELECT 1 WHERE a = ?", lite.rebind("SELECT 1 WHERE a = ?"))
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "?", placeholders(1))
	require.Equal(t, "?, ?, ?", placeholders(3))
}
