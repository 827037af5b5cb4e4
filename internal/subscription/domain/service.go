package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type UpdateRequest struct {
	UserID         snowflake.ID `json:"-"`
	SubscriptionID string       `json:"-"`
	Preferences    Preferences  `json:"preferences"`
	IsActive       *bool        `json:"is_active,omitempty"`
}

type Service interface {
	Subscribe(ctx context.Context, userID snowflake.ID, listingID string) (Subscription, error)
	Toggle(ctx context.Context, userID snowflake.ID, listingID string) (Subscription, error)
	UpdatePreferences(ctx context.Context, req UpdateRequest) (Subscription, error)
	SetActive(ctx context.Context, userID, subscriptionID snowflake.ID, active bool) (Subscription, error)
	DeactivateAll(ctx context.Context, userID snowflake.ID) (int64, error)
	ListForUser(ctx context.Context, userID snowflake.ID, activeOnly bool) ([]WithListing, error)
	CountActive(ctx context.Context, userID snowflake.ID) (int64, error)
	Get(ctx context.Context, userID, listingID snowflake.ID) (*Subscription, error)
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidListing       = errors.New("invalid_listing")
	ErrInvalidSubscription  = errors.New("invalid_subscription")
	ErrListingNotFound      = errors.New("listing_not_found")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrForbidden            = errors.New("forbidden")
)
