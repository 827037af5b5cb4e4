package capacity

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID snowflake.ID = 100
	buyerA  snowflake.ID = 200
	buyerB  snowflake.ID = 300
)

var today = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func kg(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func tenKgListing() Listing {
	return Listing{
		ID:             1,
		OwnerID:        ownerID,
		TotalKg:        kg("10"),
		IsActive:       true,
		AvailableUntil: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestRemainingCapacitySkipsCancelledAndExcluded(t *testing.T) {
	listing := tenKgListing()
	reservations := []Reservation{
		{ID: 1, BuyerID: buyerA, Kg: kg("3"), Status: StatusPending},
		{ID: 2, BuyerID: buyerA, Kg: kg("2.5"), Status: StatusReserved},
		{ID: 3, BuyerID: buyerB, Kg: kg("4"), Status: StatusCancelled},
	}

	assert.True(t, kg("4.5").Equal(RemainingCapacity(listing, reservations, 0)))
	assert.True(t, kg("7.5").Equal(RemainingCapacity(listing, reservations, 1)))
	assert.True(t, kg("4.5").Equal(RemainingCapacity(listing, reservations, 3)))
}

func TestRemainingCapacityIsNotClamped(t *testing.T) {
	listing := tenKgListing()
	reservations := []Reservation{
		{ID: 1, BuyerID: buyerA, Kg: kg("12"), Status: StatusReserved},
	}

	remaining := RemainingCapacity(listing, reservations, 0)
	assert.True(t, kg("-2").Equal(remaining))

	summary := Summarize(listing, reservations, today)
	assert.True(t, summary.RemainingKg.IsZero())
	assert.True(t, summary.SoldOut)
	assert.False(t, summary.IsSellable)
}

func TestSummarize(t *testing.T) {
	listing := tenKgListing()
	reservations := []Reservation{
		{ID: 1, BuyerID: buyerA, Kg: kg("3"), Status: StatusPending},
		{ID: 2, BuyerID: buyerB, Kg: kg("2"), Status: StatusReserved},
		{ID: 3, BuyerID: buyerB, Kg: kg("1"), Status: StatusCancelled},
	}

	summary := Summarize(listing, reservations, today)
	assert.True(t, kg("5").Equal(summary.CommittedKg))
	assert.True(t, kg("2").Equal(summary.ReservedKg))
	assert.True(t, kg("5").Equal(summary.RemainingKg))
	assert.True(t, summary.IsSellable)
	assert.False(t, summary.SoldOut)
	assert.False(t, summary.IsExpired)
}

func TestSummarizeExpiredAndInactive(t *testing.T) {
	listing := tenKgListing()
	listing.AvailableUntil = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	summary := Summarize(listing, nil, today)
	assert.True(t, summary.IsExpired)
	assert.False(t, summary.IsSellable)

	listing = tenKgListing()
	listing.IsActive = false
	summary = Summarize(listing, nil, today)
	assert.False(t, summary.IsExpired)
	assert.False(t, summary.IsSellable)
}

func TestExpiredComparesCalendarDates(t *testing.T) {
	listing := tenKgListing()
	listing.AvailableUntil = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	lateToday := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.False(t, listing.Expired(lateToday))

	tomorrow := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	assert.True(t, listing.Expired(tomorrow))
}

func TestValidateCommitOrder(t *testing.T) {
	listing := tenKgListing()
	listing.IsActive = false

	// quantity is checked before ownership and availability
	err := ValidateCommit(listing, ownerID, kg("0"), decimal.Zero, today)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	err = ValidateCommit(listing, ownerID, kg("-1"), decimal.Zero, today)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	err = ValidateCommit(listing, ownerID, kg("0.005"), decimal.Zero, today)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	// ownership is checked before availability
	err = ValidateCommit(listing, ownerID, kg("1"), decimal.Zero, today)
	assert.ErrorIs(t, err, ErrOwnCapacity)

	err = ValidateCommit(listing, buyerA, kg("1"), decimal.Zero, today)
	assert.ErrorIs(t, err, ErrListingUnavailable)
}

func TestHasKgPrecision(t *testing.T) {
	assert.True(t, HasKgPrecision(kg("3")))
	assert.True(t, HasKgPrecision(kg("3.25")))
	assert.True(t, HasKgPrecision(kg("3.250")))
	assert.False(t, HasKgPrecision(kg("3.255")))
	assert.False(t, HasKgPrecision(kg("0.001")))
}

func TestValidateCommitSelfReservationAlwaysFails(t *testing.T) {
	listing := tenKgListing()
	listing.TotalKg = kg("1000")

	err := ValidateCommit(listing, ownerID, kg("1"), decimal.Zero, today)
	assert.ErrorIs(t, err, ErrOwnCapacity)
}

func TestValidateCommitExpired(t *testing.T) {
	listing := tenKgListing()
	listing.AvailableUntil = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	err := ValidateCommit(listing, buyerA, kg("1"), decimal.Zero, today)
	assert.ErrorIs(t, err, ErrListingUnavailable)
}

func TestValidateCommitInsufficientCapacity(t *testing.T) {
	listing := tenKgListing()

	err := ValidateCommit(listing, buyerB, kg("5"), kg("6"), today)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	var capErr *InsufficientCapacityError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, kg("4").Equal(capErr.Remaining))
	assert.Equal(t, "only 4 kg is left for reservation", capErr.Error())
	assert.Equal(t, "insufficient_capacity", Code(err))

	assert.NoError(t, ValidateCommit(listing, buyerB, kg("4"), kg("6"), today))
}

func TestValidateStatusChange(t *testing.T) {
	listing := tenKgListing()
	pending := Reservation{ID: 9, BuyerID: buyerA, Kg: kg("6"), Status: StatusPending}

	assert.ErrorIs(t, ValidateStatusChange(listing, pending, Status("shipped"), decimal.Zero, today), ErrInvalidStatus)
	assert.NoError(t, ValidateStatusChange(listing, pending, StatusCancelled, kg("10"), today))
	assert.NoError(t, ValidateStatusChange(listing, pending, StatusReserved, kg("4"), today))

	err := ValidateStatusChange(listing, pending, StatusReserved, kg("5"), today)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestValidateStatusChangeChecksAvailabilityForEveryCommittedTarget(t *testing.T) {
	inactive := tenKgListing()
	inactive.IsActive = false

	pending := Reservation{ID: 9, BuyerID: buyerA, Kg: kg("2"), Status: StatusPending}
	reserved := Reservation{ID: 9, BuyerID: buyerA, Kg: kg("2"), Status: StatusReserved}
	cancelled := Reservation{ID: 9, BuyerID: buyerA, Kg: kg("2"), Status: StatusCancelled}

	assert.ErrorIs(t, ValidateStatusChange(inactive, pending, StatusReserved, decimal.Zero, today), ErrListingUnavailable)
	assert.ErrorIs(t, ValidateStatusChange(inactive, reserved, StatusPending, decimal.Zero, today), ErrListingUnavailable)
	assert.ErrorIs(t, ValidateStatusChange(inactive, cancelled, StatusReserved, decimal.Zero, today), ErrListingUnavailable)
	assert.NoError(t, ValidateStatusChange(inactive, pending, StatusCancelled, decimal.Zero, today))

	expired := tenKgListing()
	pastDeadline := expired.AvailableUntil.AddDate(0, 0, 1)
	assert.ErrorIs(t, ValidateStatusChange(expired, pending, StatusReserved, decimal.Zero, pastDeadline), ErrListingUnavailable)
	assert.NoError(t, ValidateStatusChange(expired, reserved, StatusCancelled, decimal.Zero, pastDeadline))
}

func TestCrossingIsEdgeTriggered(t *testing.T) {
	open := Summary{SoldOut: false}
	full := Summary{SoldOut: true}

	assert.Equal(t, EdgeSoldOut, Crossing(open, full))
	assert.Equal(t, EdgeNone, Crossing(full, full))
	assert.Equal(t, EdgeReopened, Crossing(full, open))
	assert.Equal(t, EdgeNone, Crossing(open, open))
}

func TestTenKilogramWalkthrough(t *testing.T) {
	listing := tenKgListing()
	var reservations []Reservation

	commit := func(id, buyer snowflake.ID, amount string) error {
		committed := CommittedKg(reservations, 0)
		if err := ValidateCommit(listing, buyer, kg(amount), committed, today); err != nil {
			return err
		}
		reservations = append(reservations, Reservation{ID: id, BuyerID: buyer, Kg: kg(amount), Status: StatusPending})
		return nil
	}

	require.NoError(t, commit(1, buyerA, "6"))
	assert.True(t, kg("4").Equal(RemainingCapacity(listing, reservations, 0)))

	err := commit(2, buyerB, "5")
	var capErr *InsufficientCapacityError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, kg("4").Equal(capErr.Remaining))

	before := Summarize(listing, reservations, today)
	require.NoError(t, commit(3, buyerB, "4"))
	after := Summarize(listing, reservations, today)
	assert.True(t, after.RemainingKg.IsZero())
	assert.Equal(t, EdgeSoldOut, Crossing(before, after))

	before = after
	reservations[0].Status = StatusCancelled
	after = Summarize(listing, reservations, today)
	assert.True(t, kg("4").Equal(after.RemainingKg))
	assert.Equal(t, EdgeReopened, Crossing(before, after))
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("reserved")
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, status)

	_, err = ParseStatus("RESERVED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
