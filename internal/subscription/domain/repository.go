package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByUserAndListing(ctx context.Context, db *gorm.DB, userID, listingID snowflake.ID) (*Subscription, error)
	FindByUserAndListingForUpdate(ctx context.Context, db *gorm.DB, userID, listingID snowflake.ID) (*Subscription, error)
	ListForEvent(ctx context.Context, db *gorm.DB, listingID snowflake.ID, topic Topic) ([]Subscription, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, activeOnly bool) ([]WithListing, error)
	CountActiveByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
	UpdateSettings(ctx context.Context, db *gorm.DB, id snowflake.ID, prefs Preferences, active bool, updatedAt time.Time) error
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error
	DeactivateAll(ctx context.Context, db *gorm.DB, userID snowflake.ID, updatedAt time.Time) (int64, error)
}
