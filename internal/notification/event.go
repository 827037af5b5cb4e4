// Package notification fans listing events out to subscribed Telegram chats.
package notification

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/internal/capacity"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
)

type Kind string

const (
	KindReservationCreated       Kind = "reservation_created"
	KindReservationStatusChanged Kind = "reservation_status_changed"
	KindSoldOut                  Kind = "sold_out"
	KindReopened                 Kind = "reopened"
)

// Topic returns the subscription preference that gates the kind.
func (k Kind) Topic() subscriptiondomain.Topic {
	switch k {
	case KindReservationCreated:
		return subscriptiondomain.TopicNewReservation
	case KindReservationStatusChanged:
		return subscriptiondomain.TopicStatusChange
	case KindSoldOut:
		return subscriptiondomain.TopicSoldOut
	case KindReopened:
		return subscriptiondomain.TopicReopened
	default:
		return ""
	}
}

// Enabled reports whether a subscriber with prefs wants events of this kind.
func (k Kind) Enabled(prefs subscriptiondomain.Preferences) bool {
	return prefs.Allows(k.Topic())
}

func (k Kind) String() string {
	return string(k)
}

// ListingInfo is the listing snapshot rendered into messages.
type ListingInfo struct {
	ID            snowflake.ID
	Title         string
	DepartureCity string
	ArrivalCity   string
	RemainingKg   decimal.Decimal
}

// ReservationInfo is the reservation snapshot rendered into messages.
type ReservationInfo struct {
	ID        snowflake.ID
	BuyerName string
	Kg        decimal.Decimal
	Status    capacity.Status
}

// Event is a listing change worth telling subscribers about.
// Use the constructors; the zero value is not a valid event.
type Event struct {
	kind           Kind
	reservation    *ReservationInfo
	previousStatus capacity.Status
}

func ReservationCreated(r ReservationInfo) Event {
	return Event{kind: KindReservationCreated, reservation: &r}
}

func ReservationStatusChanged(r ReservationInfo, previous capacity.Status) Event {
	return Event{kind: KindReservationStatusChanged, reservation: &r, previousStatus: previous}
}

func SoldOut() Event {
	return Event{kind: KindSoldOut}
}

func Reopened() Event {
	return Event{kind: KindReopened}
}

// FromEdge returns the event for a sold-out crossing, if there was one.
func FromEdge(edge capacity.Edge) (Event, bool) {
	switch edge {
	case capacity.EdgeSoldOut:
		return SoldOut(), true
	case capacity.EdgeReopened:
		return Reopened(), true
	default:
		return Event{}, false
	}
}

func (e Event) Kind() Kind { return e.kind }

func (e Event) Reservation() *ReservationInfo { return e.reservation }

func (e Event) PreviousStatus() capacity.Status { return e.previousStatus }
