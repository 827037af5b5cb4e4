package notification

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/luggagehub/internal/capacity"
)

// BuildMessage renders the Telegram text for an event on a listing.
func BuildMessage(listing ListingInfo, event Event) string {
	var b strings.Builder
	b.WriteString("📦 Luggage listing update\n")
	fmt.Fprintf(&b, "Listing: %s\n", listing.Title)
	fmt.Fprintf(&b, "Route: %s → %s\n", listing.DepartureCity, listing.ArrivalCity)
	fmt.Fprintf(&b, "Remaining: %skg\n\n", capacity.FormatKg(listing.RemainingKg))
	b.WriteString(eventLine(event))
	return b.String()
}

func eventLine(event Event) string {
	r := event.Reservation()
	switch event.Kind() {
	case KindReservationCreated:
		if r == nil {
			return "🆕 New reservation."
		}
		return fmt.Sprintf("🆕 New reservation: %skg by %s.", capacity.FormatKg(r.Kg), r.BuyerName)
	case KindReservationStatusChanged:
		if r == nil {
			return "🔄 Reservation updated."
		}
		return fmt.Sprintf("🔄 Reservation updated: %skg for %s (%s → %s).",
			capacity.FormatKg(r.Kg), r.BuyerName, event.PreviousStatus(), r.Status)
	case KindSoldOut:
		return "✅ This listing is now sold out."
	case KindReopened:
		return "♻️ Space became available again."
	default:
		return "ℹ️ Listing changed."
	}
}
