package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseCategoryFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{name: "valid lowercase", input: "appointment", want: CategoryAppointment},
		{name: "valid uppercase with spaces", input: " EMERGENCY ", want: CategoryEmergency},
		{name: "follow up underscore", input: "follow_up", want: CategoryFollowUp},
		{name: "invalid", input: "marketing", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCategoryFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseCategoryFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseCategoryFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseCategoryFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTemplatePlaceholders(t *testing.T) {
	t.Parallel()

	tmpl := &Template{
		Content: "Hi {{customer_name}}, see you {{date}} at {{time}}. Reply to {{customer_name}}?",
	}

	got := tmpl.Placeholders()
	want := []string{"customer_name", "date", "time"}
	if len(got) != len(want) {
		t.Fatalf("Placeholders() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Placeholders()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTemplateValidate(t *testing.T) {
	t.Parallel()

	valid := &Template{
		OrganizationID: "org-1",
		Key:            "appointment_confirmation",
		Language:       "en",
		Content:        "Hi {{customer_name}}",
		Category:       CategoryConfirmation,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	missingKey := &Template{
		OrganizationID: "org-1",
		Language:       "en",
		Content:        "Hi",
		Category:       CategoryConfirmation,
	}
	if err := missingKey.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	badCategory := &Template{
		OrganizationID: "org-1",
		Key:            "k",
		Language:       "en",
		Content:        "Hi",
		Category:       Category("newsletter"),
	}
	if err := badCategory.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}

func TestStringify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "string", input: "Jane", want: "Jane"},
		{name: "int", input: 42, want: "42"},
		{name: "float trims zeros", input: 89.50, want: "89.5"},
		{name: "bool", input: true, want: "true"},
		{name: "time", input: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), want: "2025-03-01 10:00"},
		{name: "nil", input: nil, want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Stringify(tt.input); got != tt.want {
				t.Fatalf("Stringify(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "already e164", input: "+15551234567", want: "+15551234567"},
		{name: "nanp ten digits", input: "5551234567", want: "+15551234567"},
		{name: "nanp with country code", input: "15551234567", want: "+15551234567"},
		{name: "formatted", input: "(555) 123-4567", want: "+15551234567"},
		{name: "international plus", input: "+34 612 345 678", want: "+34612345678"},
		{name: "empty", input: "  ", wantErr: true},
		{name: "too short", input: "12345", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("NormalizePhone() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("NormalizePhone() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("NormalizePhone() = %q, want %q", got, tt.want)
			}
		})
	}
}
