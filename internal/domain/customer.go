package domain

import "time"

// Customer is a tenant's end customer. Only the fields the messaging core
// reads are modeled here; the web application owns the rest.
type Customer struct {
	ID             string
	OrganizationID string
	Name           string
	Phone          string
	SMSOptIn       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EmergencyContact is a tenant staff contact used for emergency broadcasts.
type EmergencyContact struct {
	ID             string
	OrganizationID string
	Name           string
	Phone          string
	IsActive       bool
	SMSEnabled     bool
	Priority       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
