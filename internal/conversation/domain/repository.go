package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, conversation *Conversation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Conversation, error)
	FindByParticipants(ctx context.Context, db *gorm.DB, requestID, a, b snowflake.ID) (*Conversation, error)
	ListByParticipant(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Conversation, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	InsertMessage(ctx context.Context, db *gorm.DB, message *Message) error
	ListMessages(ctx context.Context, db *gorm.DB, conversationID snowflake.ID) ([]Message, error)
	LatestMessages(ctx context.Context, db *gorm.DB, conversationIDs []snowflake.ID) ([]Message, error)
	UnreadCounts(ctx context.Context, db *gorm.DB, conversationIDs []snowflake.ID, readerID snowflake.ID) ([]UnreadCount, error)
	MarkRead(ctx context.Context, db *gorm.DB, conversationID, readerID snowflake.ID) (int64, error)
	CountUnreadByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
}
