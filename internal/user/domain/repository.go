package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]User, error)
	FindByChatID(ctx context.Context, db *gorm.DB, chatID string) (*User, error)
	LinkChat(ctx context.Context, db *gorm.DB, id snowflake.ID, chatID string, now time.Time) error
	SetNotificationsEnabled(ctx context.Context, db *gorm.DB, id snowflake.ID, enabled bool, now time.Time) error
}

type LinkTokenRepository interface {
	Insert(ctx context.Context, db *gorm.DB, token *LinkToken) error
	FindByTokenForUpdate(ctx context.Context, db *gorm.DB, token string) (*LinkToken, error)
	MarkUsed(ctx context.Context, db *gorm.DB, id snowflake.ID, usedAt time.Time) error
	DeleteStale(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
