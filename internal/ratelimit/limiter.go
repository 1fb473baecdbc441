package ratelimit

import "context"

// RateLimiter controls outbound SMS throughput per tenant.
type RateLimiter interface {
	Allow(ctx context.Context, organizationID string) (bool, error)
	Wait(ctx context.Context, organizationID string) error
}

// Nop performs no limiting. Used in tests and single-tenant deployments.
type Nop struct{}

func (Nop) Allow(context.Context, string) (bool, error) { return true, nil }
func (Nop) Wait(context.Context, string) error          { return nil }
