package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/serviceai/sms-dispatch/internal/domain"
	"github.com/serviceai/sms-dispatch/internal/repository"
	"github.com/serviceai/sms-dispatch/internal/service"
	"github.com/serviceai/sms-dispatch/internal/transport"
	"go.uber.org/zap"
)

const testOrgID = "org-1"

func TestMessageHandler_SendMessage(t *testing.T) {
	t.Parallel()

	svc := &stubMessageService{
		sendFn: func(ctx context.Context, req service.SendRequest) (*service.SendResult, error) {
			if req.OrganizationID != testOrgID {
				t.Fatalf("organization id = %q, want %q", req.OrganizationID, testOrgID)
			}
			if req.Type != service.SendIndividual {
				t.Fatalf("type = %s, want individual", req.Type)
			}
			return &service.SendResult{
				Body: req.Message,
				Results: []service.RecipientResult{{
					Phone:     "+15551234567",
					Status:    domain.DeliverySent,
					MessageID: "SM1",
					Provider:  "twilio",
				}},
				TotalSent: 1,
			}, nil
		},
	}

	app := newMessageTestApp(t, svc)

	body := `{"type":"individual","message":"hello","phoneNumber":"+15551234567"}`
	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/messages", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["success"] != true {
		t.Fatalf("success = %v, want true", parsed["success"])
	}
	if parsed["totalSent"] != float64(1) {
		t.Fatalf("totalSent = %v, want 1", parsed["totalSent"])
	}
}

func TestMessageHandler_SendMessagePartialFailure(t *testing.T) {
	t.Parallel()

	svc := &stubMessageService{
		sendFn: func(ctx context.Context, req service.SendRequest) (*service.SendResult, error) {
			return &service.SendResult{
				Body: req.Message,
				Results: []service.RecipientResult{
					{
						Phone:     "+15551234567",
						Status:    domain.DeliverySent,
						MessageID: "SM1",
						Provider:  "twilio",
					},
					{
						Phone:  "+15557654321",
						Status: domain.DeliveryFailed,
						Error:  "twilio: invalid number",
					},
				},
				TotalSent:   1,
				TotalFailed: 1,
			}, nil
		},
	}

	app := newMessageTestApp(t, svc)

	body := `{"type":"emergency","message":"office closed today"}`
	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/messages", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if !parsed.Success {
		t.Fatalf("success = false, want true when only some recipients fail")
	}
	if parsed.TotalSent != 1 || parsed.TotalFailed != 1 {
		t.Fatalf("totals = %d sent / %d failed, want 1/1", parsed.TotalSent, parsed.TotalFailed)
	}
	if len(parsed.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(parsed.Results))
	}
	if parsed.Results[1].Error == "" {
		t.Fatalf("failed recipient is missing its error detail")
	}
}

func TestMessageHandler_SendMessageValidation(t *testing.T) {
	t.Parallel()

	svc := &stubMessageService{
		sendFn: func(ctx context.Context, req service.SendRequest) (*service.SendResult, error) {
			return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
		},
	}

	app := newMessageTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/messages", `{"type":"individual","phoneNumber":"+15551234567"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/messages", `{"type":"carrier-pigeon","message":"x"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown type", resp.StatusCode)
	}
}

func TestMessageHandler_SendMessageRequiresOrganization(t *testing.T) {
	t.Parallel()

	app := newMessageTestApp(t, &stubMessageService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString(`{"type":"individual"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without org header", resp.StatusCode)
	}
}

func TestMessageHandler_ListMessages(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	svc := &stubMessageService{
		listFn: func(ctx context.Context, params repository.ListParams) ([]domain.DeliveryRecord, int64, error) {
			if params.OrganizationID != testOrgID {
				t.Fatalf("organization id = %q, want %q", params.OrganizationID, testOrgID)
			}
			if params.Status == nil || *params.Status != domain.DeliveryFailed {
				t.Fatalf("status filter = %v, want failed", params.Status)
			}
			return []domain.DeliveryRecord{{
				ID:        "msg-1",
				Phone:     "+15551234567",
				Body:      "hello",
				Direction: domain.DirectionOutbound,
				Status:    domain.DeliveryFailed,
				CreatedAt: now,
			}}, 1, nil
		},
	}

	app := newMessageTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/messages?status=failed", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed listMessagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(parsed.Data) != 1 || parsed.Data[0].ID != "msg-1" {
		t.Fatalf("data = %+v, want one record msg-1", parsed.Data)
	}
	if parsed.Meta.Total != 1 {
		t.Fatalf("total = %d, want 1", parsed.Meta.Total)
	}
}

func TestMessageHandler_ListMessagesRejectsBadParams(t *testing.T) {
	t.Parallel()

	app := newMessageTestApp(t, &stubMessageService{})

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/messages?page=0", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for page=0", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/messages?pageSize=1000", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for oversized pageSize", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/messages?from=yesterday", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad from", resp.StatusCode)
	}
}

func newMessageTestApp(t *testing.T, svc MessageService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterMessageRoutes(app, svc); err != nil {
		t.Fatalf("RegisterMessageRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(organizationHeader, testOrgID)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

type stubMessageService struct {
	sendFn func(ctx context.Context, req service.SendRequest) (*service.SendResult, error)
	listFn func(ctx context.Context, params repository.ListParams) ([]domain.DeliveryRecord, int64, error)
}

func (s *stubMessageService) Send(ctx context.Context, req service.SendRequest) (*service.SendResult, error) {
	if s.sendFn != nil {
		return s.sendFn(ctx, req)
	}
	return &service.SendResult{}, nil
}

func (s *stubMessageService) ListDeliveries(ctx context.Context, params repository.ListParams) ([]domain.DeliveryRecord, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return nil, 0, nil
}
