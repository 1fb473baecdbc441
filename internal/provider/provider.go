package provider

import "context"

// OutboundSMS is the message handed to a carrier gateway. The phone number is
// already normalized by the caller.
type OutboundSMS struct {
	To   string
	Body string
}

// SendReceipt stores provider call metadata for audit and persistence.
type SendReceipt struct {
	StatusCode int
	Body       string
	MessageID  string
}

// SMSProvider is the outbound SMS delivery port. Configured reports whether a
// full credential set is present; an unconfigured provider is skipped by the
// fallback chain, never called with partial credentials.
type SMSProvider interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, sms OutboundSMS) (*SendReceipt, error)
}

// Credentials is one provider's credential set, resolved from configuration
// at startup rather than read from the environment inside business logic.
type Credentials struct {
	AccountID    string
	AuthToken    string
	SenderNumber string
}

func (c Credentials) Complete() bool {
	return c.AccountID != "" && c.AuthToken != "" && c.SenderNumber != ""
}

// Flat per-message cost estimates in USD, differentiated only by provider,
// not by segment count.
const (
	twilioCostPerMessage = 0.0079
	vonageCostPerMessage = 0.0072
)

// CostEstimate returns the flat per-message cost for a provider name.
func CostEstimate(providerName string) float64 {
	switch providerName {
	case NameTwilio:
		return twilioCostPerMessage
	case NameVonage:
		return vonageCostPerMessage
	default:
		return 0
	}
}
