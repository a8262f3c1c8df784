package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay talks to the Razorpay Orders API behind a circuit breaker.
type Razorpay struct {
	orders  orderCreator
	breaker *gobreaker.CircuitBreaker
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return newRazorpay(client.Order)
}

func newRazorpay(orders orderCreator) *Razorpay {
	return &Razorpay{
		orders: orders,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "razorpay",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.orders.Create(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	body, _ := res.(map[string]interface{})
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: order response without id", ErrUnavailable)
	}

	order := &Order{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   OrderStatusCreated,
	}
	if status, ok := body["status"].(string); ok && status != "" {
		order.Status = status
	}
	if remoteAmount, ok := body["amount"].(float64); ok {
		order.Amount = int64(remoteAmount)
	}
	return order, nil
}
