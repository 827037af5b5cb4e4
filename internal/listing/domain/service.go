package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/pkg/db/pagination"
)

type CreateRequest struct {
	SellerID        snowflake.ID    `json:"-"`
	Title           string          `json:"title"`
	TotalKg         decimal.Decimal `json:"total_kg"`
	PricePerKg      decimal.Decimal `json:"price_per_kg"`
	PriceCurrency   string          `json:"price_currency"`
	AvailableUntil  string          `json:"available_until"`
	ArrivalAt       *time.Time      `json:"arrival_at,omitempty"`
	DepartureCity   string          `json:"departure_city"`
	ArrivalCity     string          `json:"arrival_city"`
	PickupLocation  string          `json:"pickup_location"`
	DeliveryOptions string          `json:"delivery_options"`
	AllowedItems    string          `json:"allowed_items"`
	ProhibitedItems string          `json:"prohibited_items"`
	Description     string          `json:"description"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// UpdateRequest edits listing metadata. Nil fields are left unchanged;
// capacity is not editable.
type UpdateRequest struct {
	ID              string           `json:"-"`
	ActorID         snowflake.ID     `json:"-"`
	Title           *string          `json:"title,omitempty"`
	PricePerKg      *decimal.Decimal `json:"price_per_kg,omitempty"`
	PriceCurrency   *string          `json:"price_currency,omitempty"`
	AvailableUntil  *string          `json:"available_until,omitempty"`
	ArrivalAt       *time.Time       `json:"arrival_at,omitempty"`
	DepartureCity   *string          `json:"departure_city,omitempty"`
	ArrivalCity     *string          `json:"arrival_city,omitempty"`
	PickupLocation  *string          `json:"pickup_location,omitempty"`
	DeliveryOptions *string          `json:"delivery_options,omitempty"`
	AllowedItems    *string          `json:"allowed_items,omitempty"`
	ProhibitedItems *string          `json:"prohibited_items,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

type SetActiveRequest struct {
	ID       string       `json:"-"`
	ActorID  snowflake.ID `json:"-"`
	IsActive bool         `json:"is_active"`
}

type DeleteRequest struct {
	ID      string       `json:"-"`
	ActorID snowflake.ID `json:"-"`
}

type ListRequest struct {
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Listings []Detail `json:"listings"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Detail, error)
	Get(ctx context.Context, id string) (Detail, error)
	Update(ctx context.Context, req UpdateRequest) (Detail, error)
	SetActive(ctx context.Context, req SetActiveRequest) (Detail, error)
	Delete(ctx context.Context, req DeleteRequest) error
	ListMarketplace(ctx context.Context, req ListRequest) (ListResponse, error)
	ListBySeller(ctx context.Context, sellerID snowflake.ID) ([]Detail, error)
}

var (
	ErrInvalidListing        = errors.New("invalid_listing")
	ErrInvalidSeller         = errors.New("invalid_seller")
	ErrInvalidTitle          = errors.New("invalid_title")
	ErrInvalidTotalKg        = errors.New("invalid_total_kg")
	ErrInvalidPrice          = errors.New("invalid_price_per_kg")
	ErrInvalidCurrency       = errors.New("invalid_price_currency")
	ErrInvalidAvailableUntil = errors.New("invalid_available_until")
	ErrInvalidCity           = errors.New("invalid_city")
	ErrListingNotFound       = errors.New("listing_not_found")
	ErrForbidden             = errors.New("forbidden")
	ErrHasReservations       = errors.New("listing_has_reservations")
)
