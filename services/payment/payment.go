package payment

import "context"

// ChargeState is the verification outcome for a charge reference.
type ChargeState string

const (
	StatePaid   ChargeState = "paid"
	StateUnpaid ChargeState = "unpaid"
	StateFailed ChargeState = "failed"
)

// ChargeReference identifies a payable charge plus the link the client pays
// through.
type ChargeReference struct {
	ID         string `json:"id"`
	PaymentURL string `json:"paymentUrl"`
}

// Processor is the opaque payment capability the agent consumes: create a
// payable reference, verify it, refund it. Calls are network-bound and must
// respect the context deadline; on expiry the caller treats the failure as
// transient.
type Processor interface {
	CreateChargeReference(ctx context.Context, amount float64, currency string, metadata map[string]string) (*ChargeReference, error)
	VerifyCharge(ctx context.Context, ref string) (ChargeState, error)
	Refund(ctx context.Context, ref string, amount float64) error
}
