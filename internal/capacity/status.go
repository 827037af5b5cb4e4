package capacity

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReserved  Status = "reserved"
	StatusCancelled Status = "cancelled"
)

// ParseStatus returns the status for a wire literal.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReserved, StatusCancelled:
		return true
	default:
		return false
	}
}

// Committed reports whether kilograms held in this status count against the listing total.
func (s Status) Committed() bool {
	return s == StatusPending || s == StatusReserved
}

func (s Status) String() string {
	return string(s)
}
