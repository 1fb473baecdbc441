package queue

import "fmt"

const (
	// AppointmentEventsQueue carries appointment lifecycle events from the
	// web application into the SMS worker.
	AppointmentEventsQueue = "sms.appointment.events"

	// DeliveryEventsQueue carries per-recipient delivery outcomes to the
	// activity and analytics consumers. Best-effort; a publish failure never
	// fails the send.
	DeliveryEventsQueue = "sms.delivery.events"

	dlxExchangeName = "sms.dlx"

	appointmentRoutingKey = "appointment"
)

// DLQName returns the dead-letter queue name for a work queue.
func DLQName(queueName string) string {
	return fmt.Sprintf("dlq.%s", queueName)
}
