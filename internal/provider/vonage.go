package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	NameVonage = "vonage"

	vonageBaseURL        = "https://rest.nexmo.com"
	defaultVonageTimeout = 10 * time.Second

	// Vonage per-message status code for accepted submissions.
	vonageStatusOK = "0"
)

type vonageSendRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
}

type vonageSendResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		MessageID string `json:"message-id"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

// VonageProvider sends SMS through a Vonage-shaped SMS API.
type VonageProvider struct {
	client      *resty.Client
	credentials Credentials
}

func NewVonageProvider(credentials Credentials) *VonageProvider {
	client := resty.New()
	client.SetBaseURL(vonageBaseURL)
	client.SetTimeout(defaultVonageTimeout)
	client.SetRetryCount(0)

	return NewVonageProviderWithClient(credentials, client)
}

func NewVonageProviderWithClient(credentials Credentials, client *resty.Client) *VonageProvider {
	if client == nil {
		client = resty.New()
		client.SetBaseURL(vonageBaseURL)
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultVonageTimeout)
	}
	client.SetRetryCount(0)

	return &VonageProvider{
		client:      client,
		credentials: credentials,
	}
}

func (p *VonageProvider) Name() string { return NameVonage }

func (p *VonageProvider) Configured() bool {
	return p != nil && p.credentials.Complete()
}

func (p *VonageProvider) Send(ctx context.Context, sms OutboundSMS) (*SendReceipt, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("vonage provider is not initialized")
	}
	if !p.Configured() {
		return nil, fmt.Errorf("%s: %w", NameVonage, ErrNotConfigured)
	}
	if strings.TrimSpace(sms.To) == "" || strings.TrimSpace(sms.Body) == "" {
		return nil, fmt.Errorf("vonage: recipient and body are required")
	}

	reqBody := vonageSendRequest{
		APIKey:    p.credentials.AccountID,
		APISecret: p.credentials.AuthToken,
		From:      p.credentials.SenderNumber,
		// Vonage expects digits without the leading plus.
		To:   strings.TrimPrefix(sms.To, "+"),
		Text: sms.Body,
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post("/sms/json")
	if err != nil {
		return nil, &ProviderError{
			Provider:  NameVonage,
			Message:   "request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			Provider:   NameVonage,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("returned status %d", statusCode),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	var parsed vonageSendResponse
	if unmarshalErr := json.Unmarshal(response.Body(), &parsed); unmarshalErr != nil {
		return nil, &ProviderError{
			Provider:   NameVonage,
			StatusCode: statusCode,
			Message:    "malformed response body",
			Transient:  true,
			Cause:      unmarshalErr,
		}
	}
	if len(parsed.Messages) == 0 {
		return nil, &ProviderError{
			Provider:   NameVonage,
			StatusCode: statusCode,
			Message:    "empty messages array in response",
			Transient:  true,
		}
	}

	// The API reports per-message status inside a 200 envelope.
	msg := parsed.Messages[0]
	if msg.Status != vonageStatusOK {
		return nil, &ProviderError{
			Provider:   NameVonage,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("message status %s: %s", msg.Status, msg.ErrorText),
			Transient:  msg.Status == "1", // throttled
		}
	}

	return &SendReceipt{
		StatusCode: statusCode,
		Body:       responseBody,
		MessageID:  msg.MessageID,
	}, nil
}
