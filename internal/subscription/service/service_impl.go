package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/clock"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	"github.com/smallbiznis/luggagehub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	repo     subscriptiondomain.Repository
	listings listingdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     subscriptiondomain.Repository
	Listings listingdomain.Repository
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		listings: p.Listings,
	}
}

// Subscribe returns the user's subscription on the listing, creating it with
// default preferences or reactivating it as needed.
func (s *Service) Subscribe(ctx context.Context, userID snowflake.ID, listingID string) (subscriptiondomain.Subscription, error) {
	return s.upsert(ctx, userID, listingID, func(existing *subscriptiondomain.Subscription) (bool, bool) {
		return true, !existing.IsActive
	})
}

// Toggle creates an active subscription or flips the active flag of an existing one.
func (s *Service) Toggle(ctx context.Context, userID snowflake.ID, listingID string) (subscriptiondomain.Subscription, error) {
	return s.upsert(ctx, userID, listingID, func(existing *subscriptiondomain.Subscription) (bool, bool) {
		return !existing.IsActive, true
	})
}

// upsert runs get-or-create for (user, listing). decide returns the desired
// active flag for an existing row and whether it must be written.
func (s *Service) upsert(
	ctx context.Context,
	userID snowflake.ID,
	rawListingID string,
	decide func(existing *subscriptiondomain.Subscription) (active bool, write bool),
) (subscriptiondomain.Subscription, error) {
	if userID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidUser
	}
	listingID, err := parseID(rawListingID, subscriptiondomain.ErrInvalidListing)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	listing, err := s.listings.FindByID(ctx, s.db, listingID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if listing == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrListingNotFound
	}

	var result subscriptiondomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByUserAndListingForUpdate(ctx, tx, userID, listingID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if existing == nil {
			result = subscriptiondomain.Subscription{
				ID:          s.genID.Generate(),
				UserID:      userID,
				ListingID:   listingID,
				Preferences: subscriptiondomain.DefaultPreferences(),
				IsActive:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			return s.repo.Insert(ctx, tx, &result)
		}

		active, write := decide(existing)
		result = *existing
		if !write || existing.IsActive == active {
			return nil
		}
		result.IsActive = active
		result.UpdatedAt = now
		return s.repo.SetActive(ctx, tx, existing.ID, active, now)
	})
	if err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return subscriptiondomain.Subscription{}, err
		}
		// another request created the row first
		existing, findErr := s.repo.FindByUserAndListing(ctx, s.db, userID, listingID)
		if findErr != nil {
			return subscriptiondomain.Subscription{}, findErr
		}
		if existing == nil {
			return subscriptiondomain.Subscription{}, err
		}
		return *existing, nil
	}

	s.log.Info("subscription updated",
		zap.String("subscription_id", result.ID.String()),
		zap.String("listing_id", listingID.String()),
		zap.Bool("is_active", result.IsActive),
	)
	return result, nil
}

// UpdatePreferences replaces the preferences record and, when given, the active flag.
func (s *Service) UpdatePreferences(ctx context.Context, req subscriptiondomain.UpdateRequest) (subscriptiondomain.Subscription, error) {
	subscriptionID, err := parseID(req.SubscriptionID, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	subscription, err := s.owned(ctx, req.UserID, subscriptionID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	active := subscription.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := s.clock.Now()
	if err := s.repo.UpdateSettings(ctx, s.db, subscription.ID, req.Preferences, active, now); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	subscription.Preferences = req.Preferences
	subscription.IsActive = active
	subscription.UpdatedAt = now
	return subscription, nil
}

func (s *Service) SetActive(ctx context.Context, userID, subscriptionID snowflake.ID, active bool) (subscriptiondomain.Subscription, error) {
	subscription, err := s.owned(ctx, userID, subscriptionID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription.IsActive == active {
		return subscription, nil
	}

	now := s.clock.Now()
	if err := s.repo.SetActive(ctx, s.db, subscription.ID, active, now); err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	subscription.IsActive = active
	subscription.UpdatedAt = now
	return subscription, nil
}

func (s *Service) DeactivateAll(ctx context.Context, userID snowflake.ID) (int64, error) {
	if userID == 0 {
		return 0, subscriptiondomain.ErrInvalidUser
	}
	return s.repo.DeactivateAll(ctx, s.db, userID, s.clock.Now())
}

func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID, activeOnly bool) ([]subscriptiondomain.WithListing, error) {
	if userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}
	items, err := s.repo.ListByUser(ctx, s.db, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []subscriptiondomain.WithListing{}
	}
	return items, nil
}

func (s *Service) CountActive(ctx context.Context, userID snowflake.ID) (int64, error) {
	if userID == 0 {
		return 0, subscriptiondomain.ErrInvalidUser
	}
	return s.repo.CountActiveByUser(ctx, s.db, userID)
}

// Get returns the user's subscription on the listing, or nil when there is none.
func (s *Service) Get(ctx context.Context, userID, listingID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	if userID == 0 || listingID == 0 {
		return nil, nil
	}
	return s.repo.FindByUserAndListing(ctx, s.db, userID, listingID)
}

func (s *Service) owned(ctx context.Context, userID, subscriptionID snowflake.ID) (subscriptiondomain.Subscription, error) {
	if userID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidUser
	}
	if subscriptionID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidSubscription
	}

	subscription, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	// another user's subscription is reported as missing
	if subscription == nil || subscription.UserID != userID {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *subscription, nil
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
