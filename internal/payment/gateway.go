// Package payment wraps the external payment gateway. Order
// creation goes through the Gateway interface so the booking
// service can be exercised in tests with a fake; the production
// implementation sits on top of the Razorpay SDK. Signature
// verification is a pure function and lives in signature.go.
package payment

import (
	"errors"
	"fmt"
	"log"

	razorpay "github.com/razorpay/razorpay-go"
)

// ErrGatewayUnavailable is returned when the gateway cannot be
// reached or rejects the order request. The caller keeps its
// pending booking row so the guest can retry.
var ErrGatewayUnavailable = errors.New("payment: gateway unavailable")

// Order is a gateway-side reservation of a specific charge amount.
// The ID is handed to the client-side payment widget.
type Order struct {
	ID          string
	AmountCents int64
	Currency    string
}

// Gateway creates payment orders with the external processor.
type Gateway interface {
	// CreateOrder reserves a charge of amountCents in the given
	// currency. The receipt ties the order back to our booking for
	// reconciliation and notes carry free-form metadata.
	CreateOrder(amountCents int64, currency, receipt string, notes map[string]interface{}) (Order, error)
}

// RazorpayGateway implements Gateway on top of the Razorpay REST
// API via the official SDK.
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway builds a gateway client from the key id and
// secret issued by the Razorpay dashboard.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder creates a Razorpay order. Amounts are already in
// minor units (paise), which is what the API expects.
func (g *RazorpayGateway) CreateOrder(amountCents int64, currency, receipt string, notes map[string]interface{}) (Order, error) {
	data := map[string]interface{}{
		"amount":   amountCents,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		log.Printf("razorpay: order create failed: %v", err)
		return Order{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return Order{}, fmt.Errorf("%w: order response missing id", ErrGatewayUnavailable)
	}
	out := Order{ID: id, AmountCents: amountCents, Currency: currency}
	// The API echoes amount/currency back; prefer its values when present.
	if v, ok := body["amount"].(float64); ok {
		out.AmountCents = int64(v)
	}
	if v, ok := body["currency"].(string); ok && v != "" {
		out.Currency = v
	}
	return out, nil
}
