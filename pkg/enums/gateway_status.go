package enums

import "strings"

// GatewayStatus is the external status vocabulary reported by the payment
// gateway. It is never stored on an order verbatim; the reconciler maps it to
// the internal PaymentStatus/OrderStatus pair.
type GatewayStatus string

const (
	GatewayStatusPending    GatewayStatus = "PENDING"
	GatewayStatusProcessing GatewayStatus = "PROCESSING"
	GatewayStatusPaid       GatewayStatus = "PAID"
	GatewayStatusCompleted  GatewayStatus = "COMPLETED"
	GatewayStatusExpired    GatewayStatus = "EXPIRED"
	GatewayStatusFailed     GatewayStatus = "FAILED"
	GatewayStatusCancelled  GatewayStatus = "CANCELLED"
)

// NormalizeGatewayStatus uppercases raw gateway input; unknown values are
// returned as-is so callers can decide how to treat them.
func NormalizeGatewayStatus(value string) GatewayStatus {
	return GatewayStatus(strings.ToUpper(strings.TrimSpace(value)))
}

// IsPaid reports whether the gateway considers the charge settled.
func (g GatewayStatus) IsPaid() bool {
	return g == GatewayStatusPaid || g == GatewayStatusCompleted
}

// IsFailed reports whether the gateway considers the charge dead.
func (g GatewayStatus) IsFailed() bool {
	return g == GatewayStatusFailed || g == GatewayStatusCancelled || g == GatewayStatusExpired
}
