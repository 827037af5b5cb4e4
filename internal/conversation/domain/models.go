// Package domain contains private message threads between a request's owner
// and a user who answered it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Conversation is unique per (request, initiator, owner).
type Conversation struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	RequestID   snowflake.ID `gorm:"not null;uniqueIndex:ux_conversations_request_participants,priority:1" json:"request_id"`
	InitiatorID snowflake.ID `gorm:"not null;uniqueIndex:ux_conversations_request_participants,priority:2;index" json:"initiator_id"`
	OwnerID     snowflake.ID `gorm:"not null;uniqueIndex:ux_conversations_request_participants,priority:3;index" json:"owner_id"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Conversation) TableName() string { return "conversations" }

func (c Conversation) HasParticipant(userID snowflake.ID) bool {
	return userID != 0 && (c.InitiatorID == userID || c.OwnerID == userID)
}

type Message struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ConversationID snowflake.ID `gorm:"not null;index" json:"conversation_id"`
	SenderID       snowflake.ID `gorm:"not null" json:"sender_id"`
	Content        string       `gorm:"type:text;not null" json:"content"`
	IsRead         bool         `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "conversation_messages" }

// Summary is one row of a user's inbox. UnreadCount counts messages from the other participant.
type Summary struct {
	Conversation
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int64      `json:"unread_count"`
}

// LastActivity is the latest message time, or the creation time of an empty conversation.
func (s Summary) LastActivity() time.Time {
	if s.LastMessageAt != nil {
		return *s.LastMessageAt
	}
	return s.CreatedAt
}

type Thread struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

type UnreadCount struct {
	ConversationID snowflake.ID
	Count          int64
}
