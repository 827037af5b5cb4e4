package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type SendRequest struct {
	ConversationID string       `json:"-"`
	SenderID       snowflake.ID `json:"-"`
	Content        string       `json:"content"`
}

type Service interface {
	Start(ctx context.Context, userID snowflake.ID, requestID string) (Conversation, error)
	ListForUser(ctx context.Context, userID snowflake.ID) ([]Summary, error)
	Open(ctx context.Context, userID snowflake.ID, conversationID string) (Thread, error)
	Send(ctx context.Context, req SendRequest) (Message, error)
	Delete(ctx context.Context, userID snowflake.ID, conversationID string) error
	UnreadCount(ctx context.Context, userID snowflake.ID) (int64, error)
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidConversation  = errors.New("invalid_conversation")
	ErrInvalidRequest       = errors.New("invalid_request_id")
	ErrInvalidContent       = errors.New("invalid_content")
	ErrMessageTooLong       = errors.New("message_too_long")
	ErrOwnRequest           = errors.New("own_request")
	ErrRequestNotFound      = errors.New("request_not_found")
	ErrConversationNotFound = errors.New("conversation_not_found")
	ErrForbidden            = errors.New("forbidden")
)
