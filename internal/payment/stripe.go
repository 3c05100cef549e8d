package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
)

// Provider produces a payment link for an order. The conversation embeds
// the link in the "pay online" reply.
type Provider interface {
	PaymentLink(ctx context.Context, orderID int64, total float64, currency string) (string, error)
}

type StripeClient struct {
	secretKey  string
	successURL string
	cancelURL  string
}

func NewStripeClient(secretKey, successURL, cancelURL string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// PaymentLink creates a checkout session for the order total and returns
// its hosted URL. The order id travels as the client reference id so the
// payment can be matched back.
func (s *StripeClient) PaymentLink(_ context.Context, orderID int64, total float64, currency string) (string, error) {
	if stripe.Key != s.secretKey {
		stripe.Key = s.secretKey
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(int64(total * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Order #%d", orderID)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(orderID, 10)),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

// StaticLink is the no-Stripe fallback: an invoice URL with the order id
// appended, served by an external payment page.
type StaticLink struct {
	Base string
}

func (s StaticLink) PaymentLink(_ context.Context, orderID int64, _ float64, _ string) (string, error) {
	return fmt.Sprintf("%s%d", s.Base, orderID), nil
}
