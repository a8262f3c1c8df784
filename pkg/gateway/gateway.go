package gateway

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("payment processor unavailable")

// OrderStatusCreated is the status of a freshly created, unpaid order.
const OrderStatusCreated = "created"

// Order is the processor's view of a created order.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// Gateway creates orders with the remote payment processor.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
}
