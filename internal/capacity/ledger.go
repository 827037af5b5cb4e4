// Package capacity holds the pure arithmetic over a listing's kilograms:
// what is committed, what remains and whether a new commitment fits.
package capacity

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Listing is the part of a listing the ledger needs.
type Listing struct {
	ID             snowflake.ID
	OwnerID        snowflake.ID
	TotalKg        decimal.Decimal
	IsActive       bool
	AvailableUntil time.Time
}

// Expired reports whether the listing's last available date lies before today.
// Both values are compared as calendar dates.
func (l Listing) Expired(today time.Time) bool {
	return calendarDate(l.AvailableUntil).Before(calendarDate(today))
}

// Available reports whether the listing accepts new commitments today.
func (l Listing) Available(today time.Time) bool {
	return l.IsActive && !l.Expired(today)
}

// Reservation is the part of a reservation the ledger needs.
type Reservation struct {
	ID      snowflake.ID
	BuyerID snowflake.ID
	Kg      decimal.Decimal
	Status  Status
}

// Summary is the derived capacity view of a listing.
type Summary struct {
	TotalKg     decimal.Decimal `json:"total_kg"`
	CommittedKg decimal.Decimal `json:"committed_kg"`
	ReservedKg  decimal.Decimal `json:"reserved_kg"`
	RemainingKg decimal.Decimal `json:"remaining_kg"`
	IsExpired   bool            `json:"is_expired"`
	IsSellable  bool            `json:"is_sellable"`
	SoldOut     bool            `json:"sold_out"`
}

// CommittedKg sums kilograms over committed reservations, skipping excludingID.
func CommittedKg(reservations []Reservation, excludingID snowflake.ID) decimal.Decimal {
	total := decimal.Zero
	for _, r := range reservations {
		if excludingID != 0 && r.ID == excludingID {
			continue
		}
		if r.Status.Committed() {
			total = total.Add(r.Kg)
		}
	}
	return total
}

// RemainingCapacity is total minus committed kilograms, skipping excludingID.
// The result is not clamped and is negative when the listing is oversold.
func RemainingCapacity(listing Listing, reservations []Reservation, excludingID snowflake.ID) decimal.Decimal {
	return listing.TotalKg.Sub(CommittedKg(reservations, excludingID))
}

// Summarize derives the capacity view of a listing on the given day.
func Summarize(listing Listing, reservations []Reservation, today time.Time) Summary {
	committed := decimal.Zero
	reserved := decimal.Zero
	for _, r := range reservations {
		if r.Status.Committed() {
			committed = committed.Add(r.Kg)
		}
		if r.Status == StatusReserved {
			reserved = reserved.Add(r.Kg)
		}
	}

	remaining := listing.TotalKg.Sub(committed)
	expired := listing.Expired(today)
	soldOut := !remaining.IsPositive()
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return Summary{
		TotalKg:     listing.TotalKg,
		CommittedKg: committed,
		ReservedKg:  reserved,
		RemainingKg: remaining,
		IsExpired:   expired,
		IsSellable:  listing.IsActive && !expired && !soldOut,
		SoldOut:     soldOut,
	}
}

// KgScale is the number of decimal places a kilogram or price amount may carry.
const KgScale = 2

// HasKgPrecision reports whether d fits in KgScale decimal places without rounding.
func HasKgPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(KgScale))
}

// ValidateCommit checks whether requestedKg may be committed by requesterID against listing,
// given the kilograms already committed by every other reservation. Checks run in a fixed
// order: quantity, ownership, availability, then capacity.
func ValidateCommit(listing Listing, requesterID snowflake.ID, requestedKg, committedExcluding decimal.Decimal, today time.Time) error {
	if !requestedKg.IsPositive() || !HasKgPrecision(requestedKg) {
		return ErrInvalidQuantity
	}
	if requesterID == listing.OwnerID {
		return ErrOwnCapacity
	}
	if !listing.Available(today) {
		return ErrListingUnavailable
	}
	return checkRemaining(listing, requestedKg, committedExcluding)
}

func checkRemaining(listing Listing, requestedKg, committedExcluding decimal.Decimal) error {
	remaining := listing.TotalKg.Sub(committedExcluding)
	if requestedKg.GreaterThan(remaining) {
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return &InsufficientCapacityError{Remaining: remaining}
	}
	return nil
}

// ValidateStatusChange checks whether a reservation may move to status to. Moving into
// cancelled always fits. Every move into the committed set runs the full ValidateCommit
// against the buyer, excluding the reservation's own kilograms from the committed sum.
func ValidateStatusChange(listing Listing, r Reservation, to Status, committedExcluding decimal.Decimal, today time.Time) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if !to.Committed() {
		return nil
	}
	return ValidateCommit(listing, r.BuyerID, r.Kg, committedExcluding, today)
}

// Crossing returns the edge event implied by moving from before to after:
// EdgeSoldOut when the listing became sold out, EdgeReopened when it stopped being sold out.
func Crossing(before, after Summary) Edge {
	switch {
	case !before.SoldOut && after.SoldOut:
		return EdgeSoldOut
	case before.SoldOut && !after.SoldOut:
		return EdgeReopened
	default:
		return EdgeNone
	}
}

// Edge is a sold-out state change of a listing.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeSoldOut
	EdgeReopened
)

// FormatKg renders kilograms without trailing zeros.
func FormatKg(kg decimal.Decimal) string {
	return kg.String()
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
