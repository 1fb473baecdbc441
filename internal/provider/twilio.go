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
	NameTwilio = "twilio"

	twilioBaseURL        = "https://api.twilio.com"
	defaultTwilioTimeout = 10 * time.Second
)

type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Message      string `json:"message"`
}

// TwilioProvider sends SMS through a Twilio-shaped Messages API.
type TwilioProvider struct {
	client      *resty.Client
	credentials Credentials
}

func NewTwilioProvider(credentials Credentials) *TwilioProvider {
	client := resty.New()
	client.SetBaseURL(twilioBaseURL)
	client.SetTimeout(defaultTwilioTimeout)
	client.SetRetryCount(0)

	return NewTwilioProviderWithClient(credentials, client)
}

func NewTwilioProviderWithClient(credentials Credentials, client *resty.Client) *TwilioProvider {
	if client == nil {
		client = resty.New()
		client.SetBaseURL(twilioBaseURL)
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTwilioTimeout)
	}
	client.SetRetryCount(0)

	return &TwilioProvider{
		client:      client,
		credentials: credentials,
	}
}

func (p *TwilioProvider) Name() string { return NameTwilio }

func (p *TwilioProvider) Configured() bool {
	return p != nil && p.credentials.Complete()
}

func (p *TwilioProvider) Send(ctx context.Context, sms OutboundSMS) (*SendReceipt, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("twilio provider is not initialized")
	}
	if !p.Configured() {
		return nil, fmt.Errorf("%s: %w", NameTwilio, ErrNotConfigured)
	}
	if strings.TrimSpace(sms.To) == "" || strings.TrimSpace(sms.Body) == "" {
		return nil, fmt.Errorf("twilio: recipient and body are required")
	}

	endpoint := fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", p.credentials.AccountID)

	response, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.credentials.AccountID, p.credentials.AuthToken).
		SetFormData(map[string]string{
			"To":   sms.To,
			"From": p.credentials.SenderNumber,
			"Body": sms.Body,
		}).
		Post(endpoint)
	if err != nil {
		return nil, &ProviderError{
			Provider:  NameTwilio,
			Message:   "request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	var parsed twilioMessageResponse
	if unmarshalErr := json.Unmarshal(response.Body(), &parsed); unmarshalErr != nil && statusCode < http.StatusMultipleChoices {
		return nil, &ProviderError{
			Provider:   NameTwilio,
			StatusCode: statusCode,
			Message:    "malformed response body",
			Transient:  true,
			Cause:      unmarshalErr,
		}
	}

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendReceipt{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  parsed.SID,
		}, nil
	}

	message := strings.TrimSpace(parsed.ErrorMessage)
	if message == "" {
		message = strings.TrimSpace(parsed.Message)
	}
	if message == "" {
		message = fmt.Sprintf("returned status %d", statusCode)
	}

	return nil, &ProviderError{
		Provider:   NameTwilio,
		StatusCode: statusCode,
		Message:    message,
		Transient:  isTransientHTTPStatus(statusCode),
	}
}
