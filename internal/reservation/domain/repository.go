package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reservation *Reservation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reservation, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reservation, error)
	ListByListing(ctx context.Context, db *gorm.DB, listingID snowflake.ID) ([]Reservation, error)
	ListByListings(ctx context.Context, db *gorm.DB, listingIDs []snowflake.ID) ([]Reservation, error)
	ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID) ([]Reservation, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, updatedAt time.Time) error
}
