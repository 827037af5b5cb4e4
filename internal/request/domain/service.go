package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Deadlines are accepted as RFC 3339 or as a local datetime without seconds.
const DeadlineLayout = "2006-01-02T15:04"

type CreateRequest struct {
	UserID       snowflake.ID    `json:"-"`
	Type         Type            `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Deadline     string          `json:"deadline"`
	Urgent       bool            `json:"urgent"`
	HideContacts bool            `json:"hide_contacts"`
	Conditions   string          `json:"conditions"`
}

type UpdateRequest struct {
	ID           string           `json:"-"`
	ActorID      snowflake.ID     `json:"-"`
	Type         *Type            `json:"type,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	Deadline     *string          `json:"deadline,omitempty"`
	Urgent       *bool            `json:"urgent,omitempty"`
	HideContacts *bool            `json:"hide_contacts,omitempty"`
	Conditions   *string          `json:"conditions,omitempty"`
	Status       *Status          `json:"status,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Detail, error)
	Get(ctx context.Context, id string) (Detail, error)
	Update(ctx context.Context, req UpdateRequest) (Detail, error)
	Complete(ctx context.Context, actorID snowflake.ID, id string) (Detail, error)
	Delete(ctx context.Context, actorID snowflake.ID, id string) error
	ListMine(ctx context.Context, userID snowflake.ID) ([]Detail, error)
	ListActive(ctx context.Context, requestType Type) ([]Detail, error)
}

var (
	ErrInvalidRequest    = errors.New("invalid_request_id")
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidType       = errors.New("invalid_type")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidCurrency   = errors.New("invalid_currency")
	ErrInvalidDeadline   = errors.New("invalid_deadline")
	ErrInvalidStatus     = errors.New("invalid_request_status")
	ErrConditionsTooLong = errors.New("conditions_too_long")
	ErrRequestNotFound   = errors.New("request_not_found")
	ErrForbidden         = errors.New("forbidden")
)
