package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/internal/capacity"
)

type CreateRequest struct {
	ListingID     string          `json:"-"`
	BuyerID       snowflake.ID    `json:"-"`
	KgRequested   decimal.Decimal `json:"kg_requested"`
	ContactHandle string          `json:"contact_handle"`
	Note          string          `json:"note"`
}

type TransitionRequest struct {
	ReservationID string       `json:"-"`
	ActorID       snowflake.ID `json:"-"`
	Status        string       `json:"status"`
}

// Result is a reservation together with the listing capacity after the write.
type Result struct {
	Reservation Reservation      `json:"reservation"`
	Capacity    capacity.Summary `json:"capacity"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Result, error)
	Transition(ctx context.Context, req TransitionRequest) (Result, error)
	Get(ctx context.Context, id string, viewerID snowflake.ID) (Reservation, error)
	ListForListing(ctx context.Context, listingID string, ownerID snowflake.ID) ([]Reservation, error)
	ListForBuyer(ctx context.Context, buyerID snowflake.ID) ([]Reservation, error)
}

var (
	ErrInvalidReservation  = errors.New("invalid_reservation")
	ErrInvalidListing      = errors.New("invalid_listing")
	ErrInvalidBuyer        = errors.New("invalid_buyer")
	ErrReservationNotFound = errors.New("reservation_not_found")
	ErrListingNotFound     = errors.New("listing_not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrContactTooLong      = errors.New("contact_too_long")
)
