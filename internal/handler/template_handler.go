package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/serviceai/sms-dispatch/internal/domain"
)

type TemplateService interface {
	GetTemplate(ctx context.Context, orgID, key, language string) (*domain.Template, error)
	ResolveTemplate(ctx context.Context, orgID, key, language string) (*domain.Template, error)
	FormatTemplate(tmpl *domain.Template, data domain.TemplateData) string
	ValidateTemplateData(tmpl *domain.Template, data domain.TemplateData) domain.TemplateValidation
	SaveTemplate(ctx context.Context, tmpl *domain.Template) (*domain.Template, error)
	GetTemplatesByCategory(ctx context.Context, orgID string, category domain.Category, language string) ([]domain.Template, error)
	GetTemplateKeys(ctx context.Context, orgID string) ([]string, error)
}

type TemplateHandler struct {
	service TemplateService
}

func NewTemplateHandler(service TemplateService) (*TemplateHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("template service is required")
	}
	return &TemplateHandler{service: service}, nil
}

func RegisterTemplateRoutes(router fiber.Router, service TemplateService) error {
	h, err := NewTemplateHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/templates", h.SaveTemplate)
	v1.Get("/templates", h.ListTemplates)
	v1.Get("/templates/keys", h.ListTemplateKeys)
	v1.Get("/templates/:key", h.GetTemplate)
	v1.Post("/templates/:key/render", h.RenderTemplate)

	return nil
}

type saveTemplateRequest struct {
	Key       string   `json:"key"`
	Language  string   `json:"language"`
	Content   string   `json:"content"`
	Variables []string `json:"variables,omitempty"`
	Category  string   `json:"category"`
	IsActive  *bool    `json:"isActive,omitempty"`
}

type renderTemplateRequest struct {
	Language string         `json:"language,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

type templateResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Language  string    `json:"language"`
	Content   string    `json:"content"`
	Variables []string  `json:"variables"`
	Category  string    `json:"category"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type renderTemplateResponse struct {
	Key              string   `json:"key"`
	Language         string   `json:"language"`
	Body             string   `json:"body"`
	Valid            bool     `json:"valid"`
	MissingVariables []string `json:"missingVariables,omitempty"`
	ExtraVariables   []string `json:"extraVariables,omitempty"`
}

func (h *TemplateHandler) SaveTemplate(c *fiber.Ctx) error {
	orgID, err := organizationID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req saveTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	category, err := domain.ParseCategoryFromString(req.Category)
	if err != nil {
		return toHTTPError(err)
	}

	tmpl := domain.Template{
		OrganizationID: orgID,
		Key:            req.Key,
		Language:       req.Language,
		Content:        req.Content,
		Variables:      req.Variables,
		Category:       category,
		IsActive:       true,
	}
	if req.IsActive != nil {
		tmpl.IsActive = *req.IsActive
	}

	saved, err := h.service.SaveTemplate(c.Context(), &tmpl)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toTemplateResponse(saved))
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	orgID, err := organizationID(c)
	if err != nil {
		return toHTTPError(err)
	}

	key := strings.TrimSpace(c.Params("key"))
	language := c.Query("language")

	tmpl, err := h.service.ResolveTemplate(c.Context(), orgID, key, language)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toTemplateResponse(tmpl))
}

func (h *TemplateHandler) RenderTemplate(c *fiber.Ctx) error {
	orgID, err := organizationID(c)
	if err != nil {
		return toHTTPError(err)
	}

	key := strings.TrimSpace(c.Params("key"))

	var req renderTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	tmpl, err := h.service.ResolveTemplate(c.Context(), orgID, key, req.Language)
	if err != nil {
		return toHTTPError(err)
	}

	data := domain.TemplateData(req.Data)
	validation := h.service.ValidateTemplateData(tmpl, data)
	body := h.service.FormatTemplate(tmpl, data)

	return c.Status(fiber.StatusOK).JSON(renderTemplateResponse{
		Key:              tmpl.Key,
		Language:         tmpl.Language,
		Body:             body,
		Valid:            validation.Valid,
		MissingVariables: validation.MissingVariables,
		ExtraVariables:   validation.ExtraVariables,
	})
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	orgID, err := organizationID(c)
	if err != nil {
		return toHTTPError(err)
	}

	category, err := domain.ParseCategoryFromString(c.Query("category"))
	if err != nil {
		return toHTTPError(err)
	}

	templates, err := h.service.GetTemplatesByCategory(c.Context(), orgID, category, c.Query("language"))
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]templateResponse, 0, len(templates))
	for i := range templates {
		data = append(data, toTemplateResponse(&templates[i]))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": data})
}

func (h *TemplateHandler) ListTemplateKeys(c *fiber.Ctx) error {
	orgID, err := organizationID(c)
	if err != nil {
		return toHTTPError(err)
	}

	keys, err := h.service.GetTemplateKeys(c.Context(), orgID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"keys": keys})
}

func toTemplateResponse(t *domain.Template) templateResponse {
	if t == nil {
		return templateResponse{}
	}

	return templateResponse{
		ID:        t.ID,
		Key:       t.Key,
		Language:  t.Language,
		Content:   t.Content,
		Variables: t.Variables,
		Category:  t.Category.String(),
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
