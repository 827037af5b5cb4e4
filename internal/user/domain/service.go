package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type EnsureRequest struct {
	UserID   snowflake.ID
	Username string
}

type LinkTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	StartURL  string    `json:"start_url,omitempty"`
}

type Service interface {
	Ensure(ctx context.Context, req EnsureRequest) (User, error)
	Get(ctx context.Context, id snowflake.ID) (User, error)
	GetByChatID(ctx context.Context, chatID string) (User, error)
	ListByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]User, error)
	IssueLinkToken(ctx context.Context, userID snowflake.ID) (LinkTokenResponse, error)
	ConsumeLinkToken(ctx context.Context, token, chatID string) (User, error)
	SetNotificationsEnabled(ctx context.Context, userID snowflake.ID, enabled bool) error
	PurgeLinkTokens(ctx context.Context) (int64, error)
}

var (
	ErrUserNotFound     = errors.New("user_not_found")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidChatID    = errors.New("invalid_chat_id")
	ErrInvalidLinkToken = errors.New("invalid_link_token")
	ErrChatNotLinked    = errors.New("chat_not_linked")
)
