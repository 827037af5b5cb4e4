package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	"github.com/smallbiznis/luggagehub/pkg/db/option"
	"gorm.io/gorm"
)

const subscriptionColumns = `id, user_id, listing_id, notify_on_new_reservation, notify_on_status_change,
	notify_on_sold_out, notify_on_reopened, is_active, created_at, updated_at`

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO luggage_subscriptions (`+subscriptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.UserID,
		subscription.ListingID,
		subscription.NotifyOnNewReservation,
		subscription.NotifyOnStatusChange,
		subscription.NotifyOnSoldOut,
		subscription.NotifyOnReopened,
		subscription.IsActive,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM luggage_subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByUserAndListing(ctx context.Context, db *gorm.DB, userID, listingID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM luggage_subscriptions WHERE user_id = ? AND listing_id = ?`,
		userID,
		listingID,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByUserAndListingForUpdate(ctx context.Context, db *gorm.DB, userID, listingID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := option.ForUpdate().Apply(db.WithContext(ctx)).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Take(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

// ListForEvent returns active subscriptions on the listing that opted into topic.
func (r *repo) ListForEvent(ctx context.Context, db *gorm.DB, listingID snowflake.ID, topic subscriptiondomain.Topic) ([]subscriptiondomain.Subscription, error) {
	if !topic.Valid() {
		return nil, fmt.Errorf("unknown subscription topic %q", topic)
	}

	var items []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM luggage_subscriptions
		 WHERE listing_id = ? AND is_active = ? AND `+string(topic)+` = ?
		 ORDER BY id`,
		listingID,
		true,
		true,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, activeOnly bool) ([]subscriptiondomain.WithListing, error) {
	query := `SELECT s.id, s.user_id, s.listing_id, s.notify_on_new_reservation, s.notify_on_status_change,
			s.notify_on_sold_out, s.notify_on_reopened, s.is_active, s.created_at, s.updated_at,
			l.title AS listing_title
		 FROM luggage_subscriptions s
		 JOIN luggage_listings l ON l.id = s.listing_id
		 WHERE s.user_id = ?`
	args := []any{userID}
	if activeOnly {
		query += ` AND s.is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY s.created_at DESC, s.id DESC`

	var items []subscriptiondomain.WithListing
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountActiveByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM luggage_subscriptions WHERE user_id = ? AND is_active = ?`,
		userID,
		true,
	).Scan(&count).Error
	return count, err
}

// UpdateSettings writes all four preferences and the active flag in one statement.
func (r *repo) UpdateSettings(ctx context.Context, db *gorm.DB, id snowflake.ID, prefs subscriptiondomain.Preferences, active bool, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE luggage_subscriptions SET
			notify_on_new_reservation = ?, notify_on_status_change = ?, notify_on_sold_out = ?,
			notify_on_reopened = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		prefs.NotifyOnNewReservation,
		prefs.NotifyOnStatusChange,
		prefs.NotifyOnSoldOut,
		prefs.NotifyOnReopened,
		active,
		updatedAt,
		id,
	).Error
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE luggage_subscriptions SET is_active = ?, updated_at = ? WHERE id = ?`,
		active,
		updatedAt,
		id,
	).Error
}

func (r *repo) DeactivateAll(ctx context.Context, db *gorm.DB, userID snowflake.ID, updatedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE luggage_subscriptions SET is_active = ?, updated_at = ? WHERE user_id = ? AND is_active = ?`,
		false,
		updatedAt,
		userID,
		true,
	)
	return res.RowsAffected, res.Error
}
