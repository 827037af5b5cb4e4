package capacity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrOwnCapacity          = errors.New("own_capacity")
	ErrListingUnavailable   = errors.New("listing_unavailable")
	ErrInsufficientCapacity = errors.New("insufficient_capacity")
	ErrInvalidStatus        = errors.New("invalid_status")
)

// InsufficientCapacityError reports how many kilograms were still available
// when a request asked for more.
type InsufficientCapacityError struct {
	Remaining decimal.Decimal
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("only %s kg is left for reservation", FormatKg(e.Remaining))
}

func (e *InsufficientCapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// Code returns the snake_case code used for metrics and API errors.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return ErrInvalidQuantity.Error()
	case errors.Is(err, ErrOwnCapacity):
		return ErrOwnCapacity.Error()
	case errors.Is(err, ErrListingUnavailable):
		return ErrListingUnavailable.Error()
	case errors.Is(err, ErrInsufficientCapacity):
		return ErrInsufficientCapacity.Error()
	case errors.Is(err, ErrInvalidStatus):
		return ErrInvalidStatus.Error()
	default:
		return ""
	}
}
