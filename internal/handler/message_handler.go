package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/serviceai/sms-dispatch/internal/domain"
	"github.com/serviceai/sms-dispatch/internal/repository"
	"github.com/serviceai/sms-dispatch/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100

	organizationHeader = "X-Organization-ID"
)

type MessageService interface {
	Send(ctx context.Context, req service.SendRequest) (*service.SendResult, error)
	ListDeliveries(ctx context.Context, params repository.ListParams) ([]domain.DeliveryRecord, int64, error)
}

type MessageHandler struct {
	service MessageService
}

func NewMessageHandler(service MessageService) (*MessageHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("message service is required")
	}
	return &MessageHandler{service: service}, nil
}

func RegisterMessageRoutes(router fiber.Router, service MessageService) error {
	h, err := NewMessageHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/messages", h.SendMessage)
	v1.Get("/messages", h.ListMessages)

	return nil
}

type sendMessageRequest struct {
	Type         string         `json:"type"`
	Message      string         `json:"message,omitempty"`
	TemplateKey  string         `json:"templateKey,omitempty"`
	TemplateData map[string]any `json:"templateData,omitempty"`
	Language     string         `json:"language,omitempty"`
	PhoneNumber  string         `json:"phoneNumber,omitempty"`
	CustomerID   string         `json:"customerId,omitempty"`
	Provider     string         `json:"provider,omitempty"`
}

type recipientResultResponse struct {
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Error     string `json:"error,omitempty"`
}

type sendMessageResponse struct {
	Success     bool                      `json:"success"`
	Message     string                    `json:"message"`
	Results     []recipientResultResponse `json:"results"`
	TotalSent   int                       `json:"totalSent"`
	TotalFailed int                       `json:"totalFailed"`
}

type deliveryRecordResponse struct {
	ID                string    `json:"id"`
	Phone             string    `json:"phone"`
	Body              string    `json:"body"`
	TemplateKey       string    `json:"templateKey,omitempty"`
	Language          string    `json:"language,omitempty"`
	Direction         string    `json:"direction"`
	Status            string    `json:"status"`
	Provider          string    `json:"provider,omitempty"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	ErrorDetail       string    `json:"errorDetail,omitempty"`
	Cost              float64   `json:"cost"`
	CreatedAt         time.Time `json:"createdAt"`
}

type listMessagesResponse struct {
	Data []deliveryRecordResponse `json:"data"`
	Meta listMeta                 `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	orgID, err := organizationID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sendType, err := service.ParseSendTypeFromString(req.Type)
	if err != nil {
		return toHTTPError(err)
	}

	result, err := h.service.Send(c.Context(), service.SendRequest{
		Type:           sendType,
		OrganizationID: orgID,
		Message:        req.Message,
		TemplateKey:    req.TemplateKey,
		TemplateData:   domain.TemplateData(req.TemplateData),
		Language:       req.Language,
		PhoneNumber:    req.PhoneNumber,
		CustomerID:     req.CustomerID,
		Provider:       req.Provider,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toSendMessageResponse(result))
}

func (h *MessageHandler) ListMessages(c *fiber.Ctx) error {
	orgID, err := organizationID(c)
	if err != nil {
		return toHTTPError(err)
	}

	params, err := parseListParams(c, orgID)
	if err != nil {
		return toHTTPError(err)
	}

	records, total, err := h.service.ListDeliveries(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]deliveryRecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, toDeliveryRecordResponse(record))
	}

	return c.Status(fiber.StatusOK).JSON(listMessagesResponse{
		Data: data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseListParams(c *fiber.Ctx, orgID string) (repository.ListParams, error) {
	params := repository.ListParams{
		OrganizationID: orgID,
		Page:           c.QueryInt("page", defaultPage),
		PageSize:       c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseDeliveryStatusFromString(rawStatus)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Status = &status
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.ListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.ListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func organizationID(c *fiber.Ctx) (string, error) {
	orgID := strings.TrimSpace(c.Get(organizationHeader))
	if orgID == "" {
		return "", fmt.Errorf("%w: %s header is required", domain.ErrValidation, organizationHeader)
	}
	return orgID, nil
}

func toSendMessageResponse(result *service.SendResult) sendMessageResponse {
	// The envelope reports that the request was accepted and processed;
	// per-recipient outcomes live in the results array.
	resp := sendMessageResponse{
		Success:     true,
		Results:     make([]recipientResultResponse, 0, len(result.Results)),
		TotalSent:   result.TotalSent,
		TotalFailed: result.TotalFailed,
	}

	switch {
	case result.TotalFailed == 0:
		resp.Message = fmt.Sprintf("sent to %d recipient(s)", result.TotalSent)
	case result.TotalSent == 0:
		resp.Message = "all deliveries failed"
	default:
		resp.Message = fmt.Sprintf("sent to %d of %d recipient(s)", result.TotalSent, len(result.Results))
	}

	for _, r := range result.Results {
		resp.Results = append(resp.Results, recipientResultResponse{
			Recipient: r.Recipient,
			Phone:     r.Phone,
			Status:    r.Status.String(),
			MessageID: r.MessageID,
			Provider:  r.Provider,
			Error:     r.Error,
		})
	}

	return resp
}

func toDeliveryRecordResponse(record domain.DeliveryRecord) deliveryRecordResponse {
	return deliveryRecordResponse{
		ID:                record.ID,
		Phone:             record.Phone,
		Body:              record.Body,
		TemplateKey:       record.TemplateKey,
		Language:          record.Language,
		Direction:         record.Direction.String(),
		Status:            record.Status.String(),
		Provider:          record.Provider,
		ProviderMessageID: record.ProviderMessageID,
		ErrorDetail:       record.ErrorDetail,
		Cost:              record.Cost,
		CreatedAt:         record.CreatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
