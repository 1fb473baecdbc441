package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryStatus is the terminal outcome of one recipient's send attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliverySent, DeliveryFailed:
		return true
	}
	return false
}

func ParseDeliveryStatusFromString(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid delivery status %q", ErrValidation, s)
	}
	return st, nil
}

// Direction distinguishes outbound sends from inbound webhook traffic.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

func (d Direction) String() string { return string(d) }

// MaxSMSBody is the upper bound accepted for an outbound message body.
// Longer bodies are carrier-segmented; cost is still recorded flat per message.
const MaxSMSBody = 1600

// DeliveryRecord is the persisted outcome of one recipient's send attempt.
// Written exactly once after the provider fallback chain completes and never
// mutated; a later retry is a new record.
type DeliveryRecord struct {
	ID                string
	OrganizationID    string
	Phone             string
	Body              string
	TemplateKey       string
	Language          string
	Direction         Direction
	Status            DeliveryStatus
	Provider          string
	ProviderMessageID string
	ErrorDetail       string
	Cost              float64
	CreatedAt         time.Time
}

func (r *DeliveryRecord) Validate() error {
	if strings.TrimSpace(r.OrganizationID) == "" {
		return fmt.Errorf("%w: organization id is required", ErrValidation)
	}
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: invalid delivery status %q", ErrValidation, r.Status)
	}
	if r.Direction != DirectionOutbound && r.Direction != DirectionInbound {
		return fmt.Errorf("%w: invalid direction %q", ErrValidation, r.Direction)
	}
	return nil
}
