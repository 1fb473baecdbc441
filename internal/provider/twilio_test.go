package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func testCredentials() Credentials {
	return Credentials{
		AccountID:    "AC123",
		AuthToken:    "token",
		SenderNumber: "+15005550006",
	}
}

func newTestClient(baseURL string) *resty.Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	return client
}

func TestTwilioProviderSendSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("basic auth = %s:%s ok=%v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("To"); got != "+15551234567" {
			t.Errorf("To = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer server.Close()

	p := NewTwilioProviderWithClient(testCredentials(), newTestClient(server.URL))

	receipt, err := p.Send(context.Background(), OutboundSMS{To: "+15551234567", Body: "hello"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if receipt.MessageID != "SM123" {
		t.Fatalf("MessageID = %q, want SM123", receipt.MessageID)
	}
	if receipt.StatusCode != http.StatusCreated {
		t.Fatalf("StatusCode = %d, want 201", receipt.StatusCode)
	}
}

func TestTwilioProviderSendServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":20500,"message":"internal error"}`))
	}))
	defer server.Close()

	p := NewTwilioProviderWithClient(testCredentials(), newTestClient(server.URL))

	_, err := p.Send(context.Background(), OutboundSMS{To: "+15551234567", Body: "hello"})
	if err == nil {
		t.Fatal("Send() expected error")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if providerErr.Provider != NameTwilio {
		t.Fatalf("Provider = %q, want twilio", providerErr.Provider)
	}
	if !providerErr.Transient {
		t.Fatal("500 should classify as transient")
	}
	if !IsTransient(err) {
		t.Fatal("IsTransient() = false, want true")
	}
}

func TestTwilioProviderSendClientError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"invalid 'To' phone number"}`))
	}))
	defer server.Close()

	p := NewTwilioProviderWithClient(testCredentials(), newTestClient(server.URL))

	_, err := p.Send(context.Background(), OutboundSMS{To: "+1", Body: "hello"})
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if providerErr.Transient {
		t.Fatal("400 should classify as permanent")
	}
}

func TestTwilioProviderUnconfigured(t *testing.T) {
	t.Parallel()

	p := NewTwilioProvider(Credentials{AccountID: "AC123"})
	if p.Configured() {
		t.Fatal("Configured() = true for partial credentials")
	}

	_, err := p.Send(context.Background(), OutboundSMS{To: "+15551234567", Body: "hello"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Send() error = %v, want ErrNotConfigured", err)
	}
	if IsTransient(err) {
		t.Fatal("unconfigured should not classify as transient")
	}
}

func TestCostEstimate(t *testing.T) {
	t.Parallel()

	if got := CostEstimate(NameTwilio); got != twilioCostPerMessage {
		t.Fatalf("CostEstimate(twilio) = %v", got)
	}
	if got := CostEstimate(NameVonage); got != vonageCostPerMessage {
		t.Fatalf("CostEstimate(vonage) = %v", got)
	}
	if got := CostEstimate("carrier-x"); got != 0 {
		t.Fatalf("CostEstimate(unknown) = %v, want 0", got)
	}
}
