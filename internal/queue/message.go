package queue

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentEventType identifies an appointment lifecycle transition.
type AppointmentEventType string

const (
	EventAppointmentConfirmed AppointmentEventType = "appointment.confirmed"
	EventAppointmentReminder  AppointmentEventType = "appointment.reminder"
	EventAppointmentCancelled AppointmentEventType = "appointment.cancelled"
	EventAppointmentFollowUp  AppointmentEventType = "appointment.follow_up"
)

func (t AppointmentEventType) String() string { return string(t) }

func (t AppointmentEventType) IsValid() bool {
	switch t {
	case EventAppointmentConfirmed, EventAppointmentReminder, EventAppointmentCancelled, EventAppointmentFollowUp:
		return true
	}
	return false
}

// TemplateKey maps the event to the semantic message intent it triggers.
func (t AppointmentEventType) TemplateKey() string {
	switch t {
	case EventAppointmentConfirmed:
		return "appointment_confirmation"
	case EventAppointmentReminder:
		return "appointment_reminder"
	case EventAppointmentCancelled:
		return "appointment_cancellation"
	case EventAppointmentFollowUp:
		return "follow_up"
	default:
		return ""
	}
}

// AppointmentEvent is the broker payload emitted by the scheduling surface
// whenever an appointment changes state.
type AppointmentEvent struct {
	EventID        string               `json:"eventId"`
	OrganizationID string               `json:"organizationId"`
	CustomerID     string               `json:"customerId,omitempty"`
	PhoneNumber    string               `json:"phoneNumber,omitempty"`
	EventType      AppointmentEventType `json:"eventType"`
	Language       string               `json:"language,omitempty"`
	Data           map[string]string    `json:"data,omitempty"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

func (e AppointmentEvent) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if strings.TrimSpace(e.OrganizationID) == "" {
		return fmt.Errorf("organizationId is required")
	}
	if strings.TrimSpace(e.CustomerID) == "" && strings.TrimSpace(e.PhoneNumber) == "" {
		return fmt.Errorf("customerId or phoneNumber is required")
	}
	if !e.EventType.IsValid() {
		return fmt.Errorf("invalid eventType %q", e.EventType)
	}
	return nil
}

// DeliveryEvent is the broker payload published after each delivery record
// insert, consumed by downstream activity dashboards.
type DeliveryEvent struct {
	MessageID      string    `json:"messageId"`
	OrganizationID string    `json:"organizationId"`
	Phone          string    `json:"phone"`
	Status         string    `json:"status"`
	Provider       string    `json:"provider,omitempty"`
	TemplateKey    string    `json:"templateKey,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func (e DeliveryEvent) Validate() error {
	if strings.TrimSpace(e.MessageID) == "" {
		return fmt.Errorf("messageId is required")
	}
	if strings.TrimSpace(e.OrganizationID) == "" {
		return fmt.Errorf("organizationId is required")
	}
	if strings.TrimSpace(e.Status) == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}
