package queue

import (
	"testing"
	"time"
)

func TestDLQName(t *testing.T) {
	if got := DLQName(AppointmentEventsQueue); got != "dlq.sms.appointment.events" {
		t.Fatalf("DLQName = %s, want dlq.sms.appointment.events", got)
	}
}

func TestAppointmentEventTypeTemplateKey(t *testing.T) {
	tests := []struct {
		eventType AppointmentEventType
		want      string
	}{
		{EventAppointmentConfirmed, "appointment_confirmation"},
		{EventAppointmentReminder, "appointment_reminder"},
		{EventAppointmentCancelled, "appointment_cancellation"},
		{EventAppointmentFollowUp, "follow_up"},
		{AppointmentEventType("appointment.unknown"), ""},
	}

	for _, tt := range tests {
		if got := tt.eventType.TemplateKey(); got != tt.want {
			t.Fatalf("TemplateKey(%s) = %q, want %q", tt.eventType, got, tt.want)
		}
	}
}

func TestAppointmentEventValidate(t *testing.T) {
	valid := AppointmentEvent{
		EventID:        "evt-1",
		OrganizationID: "org-1",
		CustomerID:     "cust-1",
		EventType:      EventAppointmentReminder,
		OccurredAt:     time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	phoneOnly := valid
	phoneOnly.CustomerID = ""
	phoneOnly.PhoneNumber = "+15551234567"
	if err := phoneOnly.Validate(); err != nil {
		t.Fatalf("Validate() with phone only unexpected error = %v", err)
	}

	noRecipient := valid
	noRecipient.CustomerID = ""
	if err := noRecipient.Validate(); err == nil {
		t.Fatal("Validate() expected error when both customerId and phoneNumber are empty")
	}

	badType := valid
	badType.EventType = AppointmentEventType("invoice.paid")
	if err := badType.Validate(); err == nil {
		t.Fatal("Validate() expected error for unknown event type")
	}

	noOrg := valid
	noOrg.OrganizationID = ""
	if err := noOrg.Validate(); err == nil {
		t.Fatal("Validate() expected error for missing organizationId")
	}
}

func TestDeliveryEventValidate(t *testing.T) {
	valid := DeliveryEvent{
		MessageID:      "msg-1",
		OrganizationID: "org-1",
		Phone:          "+15551234567",
		Status:         "sent",
		Provider:       "twilio",
		OccurredAt:     time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	noStatus := valid
	noStatus.Status = ""
	if err := noStatus.Validate(); err == nil {
		t.Fatal("Validate() expected error for missing status")
	}
}
