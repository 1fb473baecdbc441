package domain

import (
	"fmt"
	"strings"
)

// Recipient is a transient delivery target resolved per send request. It is
// never persisted; only the resulting DeliveryRecord is.
type Recipient struct {
	OrganizationID string
	Phone          string
	Name           string
}

func (r Recipient) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.Phone
}

// NormalizePhone converts a phone number to a single dialable +E.164-style
// form before it is handed to any provider. Ten-digit numbers are assumed to
// be NANP and get a +1 prefix.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: phone number is required", ErrValidation)
	}

	hasPlus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	switch {
	case hasPlus:
		if len(number) < 8 || len(number) > 15 {
			return "", fmt.Errorf("%w: phone number %q is not dialable", ErrValidation, raw)
		}
		return "+" + number, nil
	case len(number) == 10:
		return "+1" + number, nil
	case len(number) == 11 && strings.HasPrefix(number, "1"):
		return "+" + number, nil
	case len(number) >= 8 && len(number) <= 15:
		return "+" + number, nil
	default:
		return "", fmt.Errorf("%w: phone number %q is not dialable", ErrValidation, raw)
	}
}
