// Package conversation implements direct conversations between two
// users: creation with a sealed room token, membership checks, the
// contact list and message retrieval.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
	"github.com/pliu/roomchat/internal/roomtoken"
	"github.com/pliu/roomchat/internal/store"
)

type Service struct {
	store store.Store
	codec *roomtoken.Codec
	now   func() time.Time
}

func NewService(s store.Store, codec *roomtoken.Codec) *Service {
	return &Service{store: s, codec: codec, now: time.Now}
}

// WithClock replaces the time source used for new records.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Created is the result of a successful Create.
type Created struct {
	ConversationID objectid.ID
	SenderID       objectid.ID
	ReceiverID     objectid.ID
	Room           string
}

// Create opens a direct conversation from sender to the user named by
// receiverRaw. It writes exactly one record on success and none on
// failure.
func (s *Service) Create(ctx context.Context, senderID objectid.ID, receiverRaw string) (*Created, error) {
	if receiverRaw == "" {
		return nil, fmt.Errorf("%w: receiver id is required", ErrInvalidArgument)
	}
	receiverID, err := objectid.Convert(receiverRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if receiverID == senderID {
		return nil, fmt.Errorf("%w: cannot open a conversation with yourself", ErrInvalidArgument)
	}

	_, err = s.store.FindConversationByParticipants(ctx, senderID, receiverID)
	switch {
	case err == nil:
		return nil, ErrAlreadyExists
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: looking up conversation: %w", ErrInternal, err)
	}

	roomID, err := roomtoken.GenerateRoomID()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	participants := []objectid.ID{senderID, receiverID}
	room, err := s.codec.Seal(roomID, participants)
	if err != nil {
		return nil, fmt.Errorf("%w: sealing room token: %w", ErrInternal, err)
	}

	now := s.now().UTC()
	conversation := &models.Conversation{
		ID:           objectid.New(),
		RoomID:       roomID,
		Room:         room,
		Participants: participants,
		Creator:      senderID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateConversation(ctx, conversation); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("%w: creating conversation: %w", ErrInternal, err)
	}

	return &Created{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Room:           room,
	}, nil
}

// Authorize returns ErrForbidden unless userID is a participant.
func Authorize(c *models.Conversation, userID objectid.ID) error {
	if c == nil || !c.HasParticipant(userID) {
		return ErrForbidden
	}
	return nil
}

// load validates rawID, fetches the conversation and checks that
// userID belongs to it. An unknown id is reported as ErrForbidden so
// that non-members cannot probe which conversations exist.
func (s *Service) load(ctx context.Context, userID objectid.ID, rawID string) (*models.Conversation, error) {
	if !objectid.IsValid(rawID) {
		return nil, fmt.Errorf("%w: invalid conversation id", ErrInvalidArgument)
	}
	id, err := objectid.Convert(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	c, err := s.store.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading conversation: %w", ErrInternal, err)
	}
	if err := Authorize(c, userID); err != nil {
		return nil, err
	}
	return c, nil
}

// Conversation returns the conversation as seen by userID: room id
// redacted and only the counterpart's profile in participants.
func (s *Service) Conversation(ctx context.Context, userID objectid.ID, rawID string) (*models.ConversationView, error) {
	c, err := s.load(ctx, userID, rawID)
	if err != nil {
		return nil, err
	}
	users, err := s.store.GetUsersByIDs(ctx, c.Participants)
	if err != nil {
		return nil, fmt.Errorf("%w: loading participants: %w", ErrInternal, err)
	}
	view := newView(*c, userID, lo.KeyBy(users, func(u models.User) objectid.ID { return u.ID }), nil)
	return &view, nil
}

// Messages returns the conversation's messages, newest first.
func (s *Service) Messages(ctx context.Context, userID objectid.ID, rawID string) ([]models.Message, error) {
	c, err := s.load(ctx, userID, rawID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.GetConversationMessages(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading messages: %w", ErrInternal, err)
	}
	return messages, nil
}

// SendMessage persists a message from userID. It does not deliver it to
// connected clients.
func (s *Service) SendMessage(ctx context.Context, userID objectid.ID, rawID, body string) (*models.Message, error) {
	c, err := s.load(ctx, userID, rawID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidArgument)
	}

	message := &models.Message{
		ID:             objectid.New(),
		ConversationID: c.ID,
		SenderID:       userID,
		Body:           body,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("%w: saving message: %w", ErrInternal, err)
	}
	return message, nil
}

// Contacts lists userID's conversations, most recent activity first.
// A conversation without messages is shown only to its creator.
func (s *Service) Contacts(ctx context.Context, userID objectid.ID) ([]models.ConversationView, error) {
	conversations, err := s.store.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading conversations: %w", ErrInternal, err)
	}

	visible := lo.Filter(conversations, func(c models.Conversation, _ int) bool {
		return c.Creator == userID || c.LatestMessage != nil
	})
	if len(visible) == 0 {
		return []models.ConversationView{}, nil
	}

	counterpartIDs := lo.Uniq(lo.FlatMap(visible, func(c models.Conversation, _ int) []objectid.ID {
		return lo.Without(c.Participants, userID)
	}))
	users, err := s.store.GetUsersByIDs(ctx, counterpartIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: loading contacts: %w", ErrInternal, err)
	}

	latestIDs := lo.FilterMap(visible, func(c models.Conversation, _ int) (objectid.ID, bool) {
		if c.LatestMessage == nil {
			return objectid.Nil, false
		}
		return *c.LatestMessage, true
	})
	latest, err := s.store.GetMessagesByIDs(ctx, latestIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: loading latest messages: %w", ErrInternal, err)
	}

	profiles := lo.KeyBy(users, func(u models.User) objectid.ID { return u.ID })
	messages := lo.KeyBy(latest, func(m models.Message) objectid.ID { return m.ID })
	return lo.Map(visible, func(c models.Conversation, _ int) models.ConversationView {
		return newView(c, userID, profiles, messages)
	}), nil
}

// newView projects c for viewer: the room id is dropped and
// participants are replaced by the public profiles of everyone except
// the viewer. Participants without a user record are left out.
func newView(c models.Conversation, viewer objectid.ID, users map[objectid.ID]models.User, messages map[objectid.ID]models.Message) models.ConversationView {
	view := models.ConversationView{
		ID:           c.ID,
		Room:         c.Room,
		Participants: []models.Profile{},
		Creator:      c.Creator,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for _, id := range lo.Without(c.Participants, viewer) {
		if u, ok := users[id]; ok {
			view.Participants = append(view.Participants, u.Profile())
		}
	}
	if c.LatestMessage != nil {
		if m, ok := messages[*c.LatestMessage]; ok {
			view.LatestMessage = &m
		}
	}
	return view
}
