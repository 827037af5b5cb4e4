package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	"github.com/smallbiznis/luggagehub/pkg/db/option"
	"gorm.io/gorm"
)

const listingColumns = `id, seller_id, title, slug, total_kg, price_per_kg, price_currency, available_until,
	arrival_at, departure_city, arrival_city, pickup_location, delivery_options, allowed_items,
	prohibited_items, description, metadata, is_active, created_at, updated_at`

type repo struct{}

func Provide() listingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, listing *listingdomain.Listing) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO luggage_listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.SellerID,
		listing.Title,
		listing.Slug,
		listing.TotalKg,
		listing.PricePerKg,
		listing.PriceCurrency,
		listing.AvailableUntil,
		listing.ArrivalAt,
		listing.DepartureCity,
		listing.ArrivalCity,
		listing.PickupLocation,
		listing.DeliveryOptions,
		listing.AllowedItems,
		listing.ProhibitedItems,
		listing.Description,
		listing.Metadata,
		listing.IsActive,
		listing.CreatedAt,
		listing.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*listingdomain.Listing, error) {
	var listing listingdomain.Listing
	err := db.WithContext(ctx).Raw(
		`SELECT `+listingColumns+` FROM luggage_listings WHERE id = ?`,
		id,
	).Scan(&listing).Error
	if err != nil {
		return nil, err
	}
	if listing.ID == 0 {
		return nil, nil
	}
	return &listing, nil
}

// FindByIDForUpdate locks the listing row. Every writer of the listing's
// reservation set takes this lock first.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*listingdomain.Listing, error) {
	var listing listingdomain.Listing
	err := option.ForUpdate().Apply(db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *repo) ListBySeller(ctx context.Context, db *gorm.DB, sellerID snowflake.ID) ([]listingdomain.Listing, error) {
	var items []listingdomain.Listing
	err := db.WithContext(ctx).Raw(
		`SELECT `+listingColumns+` FROM luggage_listings
		 WHERE seller_id = ? ORDER BY created_at DESC, id DESC`,
		sellerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateDetails(ctx context.Context, db *gorm.DB, listing *listingdomain.Listing) error {
	return db.WithContext(ctx).Exec(
		`UPDATE luggage_listings SET
			title = ?, slug = ?, price_per_kg = ?, price_currency = ?, available_until = ?,
			arrival_at = ?, departure_city = ?, arrival_city = ?, pickup_location = ?,
			delivery_options = ?, allowed_items = ?, prohibited_items = ?, description = ?,
			metadata = ?, updated_at = ?
		 WHERE id = ?`,
		listing.Title,
		listing.Slug,
		listing.PricePerKg,
		listing.PriceCurrency,
		listing.AvailableUntil,
		listing.ArrivalAt,
		listing.DepartureCity,
		listing.ArrivalCity,
		listing.PickupLocation,
		listing.DeliveryOptions,
		listing.AllowedItems,
		listing.ProhibitedItems,
		listing.Description,
		listing.Metadata,
		listing.UpdatedAt,
		listing.ID,
	).Error
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE luggage_listings SET is_active = ?, updated_at = ? WHERE id = ?`,
		active,
		updatedAt,
		id,
	).Error
}

// Delete removes the listing and its subscriptions. Callers make sure no reservation references it.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM luggage_subscriptions WHERE listing_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM luggage_listings WHERE id = ?`, id).Error
}
