// Package domain contains the user account and Telegram link token models.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is a marketplace account and its Telegram delivery settings.
type User struct {
	ID                           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username                     string       `gorm:"type:text;not null" json:"username"`
	TelegramChatID               *string      `gorm:"type:text;uniqueIndex" json:"telegram_chat_id,omitempty"`
	TelegramNotificationsEnabled bool         `gorm:"not null;default:true" json:"telegram_notifications_enabled"`
	CreatedAt                    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt                    time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// ChatID returns the linked Telegram chat or an empty string.
func (u User) ChatID() string {
	if u.TelegramChatID == nil {
		return ""
	}
	return strings.TrimSpace(*u.TelegramChatID)
}

// Reachable reports whether notifications can be delivered to the user.
func (u User) Reachable() bool {
	return u.TelegramNotificationsEnabled && u.ChatID() != ""
}

// DisplayName falls back to the id when no username is set.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	return u.ID.String()
}

// LinkToken is a one-time token binding a Telegram chat to a user.
type LinkToken struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	Token     string       `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt time.Time    `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (LinkToken) TableName() string { return "telegram_link_tokens" }

// Valid reports whether the token is unused and not expired at now.
func (t LinkToken) Valid(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
