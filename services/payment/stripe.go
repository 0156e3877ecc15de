package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	checkoutSession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// callTimeout bounds every Stripe round trip; expiry surfaces as a transient
// failure the conversation can retry.
const callTimeout = 10 * time.Second

// StripeProcessor implements Processor over Stripe Checkout: the charge
// reference is a checkout session whose hosted URL goes into the reply.
type StripeProcessor struct {
	logger     *zap.Logger
	successURL string
	cancelURL  string
}

// NewStripeProcessor builds the Stripe-backed processor. stripe.Key must be
// set by the caller (main does this from config).
func NewStripeProcessor(logger *zap.Logger, successURL, cancelURL string) *StripeProcessor {
	return &StripeProcessor{logger: logger, successURL: successURL, cancelURL: cancelURL}
}

func (p *StripeProcessor) CreateChargeReference(ctx context.Context, amount float64, currency string, metadata map[string]string) (*ChargeReference, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(toCents(amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Appointment deposit"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := checkoutSession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session creation failed: %w", err)
	}

	p.logger.Info("Created charge reference", zap.String("session", sess.ID))
	return &ChargeReference{ID: sess.ID, PaymentURL: sess.URL}, nil
}

func (p *StripeProcessor) VerifyCharge(ctx context.Context, ref string) (ChargeState, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := checkoutSession.Get(ref, params)
	if err != nil {
		return StateFailed, fmt.Errorf("stripe checkout session lookup failed: %w", err)
	}
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return StatePaid, nil
	}
	return StateUnpaid, nil
}

func (p *StripeProcessor) Refund(ctx context.Context, ref string, amount float64) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	lookup := &stripe.CheckoutSessionParams{}
	lookup.Context = ctx
	sess, err := checkoutSession.Get(ref, lookup)
	if err != nil {
		return fmt.Errorf("stripe checkout session lookup failed: %w", err)
	}
	if sess.PaymentIntent == nil {
		return fmt.Errorf("charge %s has no payment intent to refund", ref)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(toCents(amount))
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("stripe refund failed: %w", err)
	}
	p.logger.Info("Refund issued", zap.String("session", ref), zap.Float64("amount", amount))
	return nil
}

func toCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
