package enums

import "fmt"

// PendingCheckoutStatus tracks abandoned checkout records kept for follow-up.
type PendingCheckoutStatus string

const (
	PendingCheckoutStatusPending   PendingCheckoutStatus = "pending"
	PendingCheckoutStatusPaid      PendingCheckoutStatus = "paid"
	PendingCheckoutStatusExpired   PendingCheckoutStatus = "expired"
	PendingCheckoutStatusCancelled PendingCheckoutStatus = "cancelled"
)

var validPendingCheckoutStatuses = []PendingCheckoutStatus{
	PendingCheckoutStatusPending,
	PendingCheckoutStatusPaid,
	PendingCheckoutStatusExpired,
	PendingCheckoutStatusCancelled,
}

// String implements fmt.Stringer.
func (p PendingCheckoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PendingCheckoutStatus.
func (p PendingCheckoutStatus) IsValid() bool {
	for _, candidate := range validPendingCheckoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePendingCheckoutStatus converts raw input into a PendingCheckoutStatus.
func ParsePendingCheckoutStatus(value string) (PendingCheckoutStatus, error) {
	for _, candidate := range validPendingCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pending checkout status %q", value)
}
