// Package domain contains per-listing notification subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Preferences selects which listing events a subscriber hears about.
// It is always written as one value.
type Preferences struct {
	NotifyOnNewReservation bool `gorm:"not null;default:true" json:"notify_on_new_reservation"`
	NotifyOnStatusChange   bool `gorm:"not null;default:true" json:"notify_on_status_change"`
	NotifyOnSoldOut        bool `gorm:"not null;default:true" json:"notify_on_sold_out"`
	NotifyOnReopened       bool `gorm:"not null;default:true" json:"notify_on_reopened"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		NotifyOnNewReservation: true,
		NotifyOnStatusChange:   true,
		NotifyOnSoldOut:        true,
		NotifyOnReopened:       true,
	}
}

// Topic names the preference column that gates one kind of event.
type Topic string

const (
	TopicNewReservation Topic = "notify_on_new_reservation"
	TopicStatusChange   Topic = "notify_on_status_change"
	TopicSoldOut        Topic = "notify_on_sold_out"
	TopicReopened       Topic = "notify_on_reopened"
)

func (t Topic) Valid() bool {
	switch t {
	case TopicNewReservation, TopicStatusChange, TopicSoldOut, TopicReopened:
		return true
	default:
		return false
	}
}

// Allows reports whether the preferences opt into topic.
func (p Preferences) Allows(t Topic) bool {
	switch t {
	case TopicNewReservation:
		return p.NotifyOnNewReservation
	case TopicStatusChange:
		return p.NotifyOnStatusChange
	case TopicSoldOut:
		return p.NotifyOnSoldOut
	case TopicReopened:
		return p.NotifyOnReopened
	default:
		return false
	}
}

// Subscription is one user's opt-in to updates about one listing.
type Subscription struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:ux_luggage_subscriptions_user_listing,priority:1" json:"user_id"`
	ListingID snowflake.ID `gorm:"not null;uniqueIndex:ux_luggage_subscriptions_user_listing,priority:2;index" json:"listing_id"`
	Preferences
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "luggage_subscriptions" }

// WithListing is a subscription joined with its listing title.
type WithListing struct {
	Subscription
	ListingTitle string `json:"listing_title"`
}
