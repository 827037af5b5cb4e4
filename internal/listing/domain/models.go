// Package domain contains the luggage listing model and its service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/internal/capacity"
	"gorm.io/datatypes"
)

// Listing is a courier's offer of luggage capacity on a route.
type Listing struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	SellerID        snowflake.ID      `gorm:"not null;index" json:"seller_id"`
	Title           string            `gorm:"type:text;not null" json:"title"`
	Slug            string            `gorm:"type:text;not null;index" json:"slug"`
	TotalKg         decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"total_kg"`
	PricePerKg      decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"price_per_kg"`
	PriceCurrency   string            `gorm:"type:text;not null" json:"price_currency"`
	AvailableUntil  time.Time         `gorm:"type:date;not null;index" json:"available_until"`
	ArrivalAt       *time.Time        `json:"arrival_at,omitempty"`
	DepartureCity   string            `gorm:"type:text;not null" json:"departure_city"`
	ArrivalCity     string            `gorm:"type:text;not null" json:"arrival_city"`
	PickupLocation  string            `gorm:"type:text;not null;default:''" json:"pickup_location"`
	DeliveryOptions string            `gorm:"type:text;not null;default:''" json:"delivery_options"`
	AllowedItems    string            `gorm:"type:text;not null;default:''" json:"allowed_items"`
	ProhibitedItems string            `gorm:"type:text;not null;default:''" json:"prohibited_items"`
	Description     string            `gorm:"type:text;not null;default:''" json:"description"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	IsActive        bool              `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Listing) TableName() string { return "luggage_listings" }

// Ledger returns the capacity view of the listing.
func (l Listing) Ledger() capacity.Listing {
	return capacity.Listing{
		ID:             l.ID,
		OwnerID:        l.SellerID,
		TotalKg:        l.TotalKg,
		IsActive:       l.IsActive,
		AvailableUntil: l.AvailableUntil,
	}
}

// Route renders the departure and arrival cities.
func (l Listing) Route() string {
	return l.DepartureCity + " → " + l.ArrivalCity
}

// Detail is a listing with its derived capacity.
type Detail struct {
	Listing
	Capacity capacity.Summary `json:"capacity"`
}
