package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
	"github.com/smallbiznis/luggagehub/pkg/db/option"
	"gorm.io/gorm"
)

const reservationColumns = `id, listing_id, buyer_id, kg_requested, contact_handle, note, status, created_at, updated_at`

type repo struct{}

func Provide() reservationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reservation *reservationdomain.Reservation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO luggage_reservations (`+reservationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID,
		reservation.ListingID,
		reservation.BuyerID,
		reservation.KgRequested,
		reservation.ContactHandle,
		reservation.Note,
		reservation.Status,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*reservationdomain.Reservation, error) {
	var reservation reservationdomain.Reservation
	err := db.WithContext(ctx).Raw(
		`SELECT `+reservationColumns+` FROM luggage_reservations WHERE id = ?`,
		id,
	).Scan(&reservation).Error
	if err != nil {
		return nil, err
	}
	if reservation.ID == 0 {
		return nil, nil
	}
	return &reservation, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*reservationdomain.Reservation, error) {
	var reservation reservationdomain.Reservation
	err := option.ForUpdate().Apply(db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *repo) ListByListing(ctx context.Context, db *gorm.DB, listingID snowflake.ID) ([]reservationdomain.Reservation, error) {
	var items []reservationdomain.Reservation
	err := db.WithContext(ctx).Raw(
		`SELECT `+reservationColumns+` FROM luggage_reservations
		 WHERE listing_id = ? ORDER BY created_at DESC, id DESC`,
		listingID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByListings(ctx context.Context, db *gorm.DB, listingIDs []snowflake.ID) ([]reservationdomain.Reservation, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}

	var items []reservationdomain.Reservation
	err := db.WithContext(ctx).Raw(
		`SELECT `+reservationColumns+` FROM luggage_reservations WHERE listing_id IN ?`,
		listingIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID) ([]reservationdomain.Reservation, error) {
	var items []reservationdomain.Reservation
	err := db.WithContext(ctx).Raw(
		`SELECT `+reservationColumns+` FROM luggage_reservations
		 WHERE buyer_id = ? ORDER BY created_at DESC, id DESC`,
		buyerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status reservationdomain.Status, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE luggage_reservations SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	).Error
}
