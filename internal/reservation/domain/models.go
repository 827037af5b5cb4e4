// Package domain contains the luggage reservation model and its service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/internal/capacity"
)

type Status = capacity.Status

const (
	StatusPending   = capacity.StatusPending
	StatusReserved  = capacity.StatusReserved
	StatusCancelled = capacity.StatusCancelled
)

// Reservation is a claim of kilograms against a listing.
type Reservation struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	ListingID     snowflake.ID    `gorm:"not null;index" json:"listing_id"`
	BuyerID       snowflake.ID    `gorm:"not null;index" json:"buyer_id"`
	KgRequested   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"kg_requested"`
	ContactHandle string          `gorm:"type:text;not null;default:''" json:"contact_handle"`
	Note          string          `gorm:"type:text;not null;default:''" json:"note"`
	Status        Status          `gorm:"type:text;not null;index" json:"status"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Reservation) TableName() string { return "luggage_reservations" }

// Ledger returns the capacity view of the reservation.
func (r Reservation) Ledger() capacity.Reservation {
	return capacity.Reservation{
		ID:      r.ID,
		BuyerID: r.BuyerID,
		Kg:      r.KgRequested,
		Status:  r.Status,
	}
}

// LedgerEntries converts reservations for the capacity ledger.
func LedgerEntries(reservations []Reservation) []capacity.Reservation {
	out := make([]capacity.Reservation, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, r.Ledger())
	}
	return out
}
