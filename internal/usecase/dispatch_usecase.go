package usecase

import "context"

// DeliveryResult reports the outcome of handing a message to the mail transport.
// Callers decide business success without it.
type DeliveryResult int

const (
	DeliveryDelivered DeliveryResult = iota
	DeliveryFailed
)

// String returns the string representation of the DeliveryResult.
func (r DeliveryResult) String() string {
	switch r {
	case DeliveryDelivered:
		return "delivered"
	case DeliveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DispatchUsecase composes and sends the account emails on a best-effort basis.
// Transport errors are logged and folded into DeliveryFailed.
type DispatchUsecase interface {
	// SendVerification mails a link carrying a freshly issued verification token.
	SendVerification(ctx context.Context, email string) DeliveryResult

	// SendReset mails the temporary password in plaintext.
	SendReset(ctx context.Context, email, password string) DeliveryResult
}
