package enums

// OutboxEventType names the domain events written to the outbox table.
type OutboxEventType string

const (
	EventOrderCreated     OutboxEventType = "order.created"
	EventPaymentConfirmed OutboxEventType = "payment.confirmed"
	EventPaymentFailed    OutboxEventType = "payment.failed"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder           OutboxAggregateType = "order"
	AggregatePendingCheckout OutboxAggregateType = "pending_checkout"
)
