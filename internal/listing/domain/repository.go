package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, listing *Listing) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Listing, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Listing, error)
	ListBySeller(ctx context.Context, db *gorm.DB, sellerID snowflake.ID) ([]Listing, error)
	UpdateDetails(ctx context.Context, db *gorm.DB, listing *Listing) error
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
