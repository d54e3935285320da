package models

import (
	"time"

	"github.com/pliu/roomchat/internal/objectid"
)

type User struct {
	ID         objectid.ID `json:"_id"`
	Username   string      `json:"username"`
	Fullname   string      `json:"fullname"`
	ProfilePic string      `json:"profilePic"`
	Password   string      `json:"-"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Profile is the public projection of a User shown to other users.
type Profile struct {
	ID         objectid.ID `json:"_id"`
	Username   string      `json:"username"`
	Fullname   string      `json:"fullname"`
	ProfilePic string      `json:"profilePic"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Fullname: u.Fullname, ProfilePic: u.ProfilePic}
}

// Conversation is a direct conversation between exactly two users.
// Participants keep insertion order: the creator comes first.
type Conversation struct {
	ID            objectid.ID   `json:"_id"`
	RoomID        string        `json:"roomId,omitempty"`
	Room          string        `json:"room"`
	Participants  []objectid.ID `json:"participants"`
	Creator       objectid.ID   `json:"creator"`
	LatestMessage *objectid.ID  `json:"latestMessage,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// HasParticipant reports whether id is one of the participants.
func (c *Conversation) HasParticipant(id objectid.ID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

type Message struct {
	ID             objectid.ID `json:"_id"`
	ConversationID objectid.ID `json:"conversationId"`
	SenderID       objectid.ID `json:"senderId"`
	Body           string      `json:"message"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// ConversationView is a conversation as returned to one of its
// participants: room id redacted, participants populated with public
// profiles.
type ConversationView struct {
	ID            objectid.ID `json:"_id"`
	Room          string      `json:"room"`
	Participants  []Profile   `json:"participants"`
	Creator       objectid.ID `json:"creator"`
	LatestMessage *Message    `json:"latestMessage,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
