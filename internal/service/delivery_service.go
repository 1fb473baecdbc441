package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serviceai/sms-dispatch/internal/domain"
	"github.com/serviceai/sms-dispatch/internal/observability"
	"github.com/serviceai/sms-dispatch/internal/provider"
	"github.com/serviceai/sms-dispatch/internal/queue"
	"github.com/serviceai/sms-dispatch/internal/ratelimit"
	"github.com/serviceai/sms-dispatch/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SendType selects the recipient resolution mode for a send request.
type SendType string

const (
	SendIndividual SendType = "individual"
	SendEmergency  SendType = "emergency"
	SendTemplate   SendType = "template"
)

func (t SendType) String() string { return string(t) }

func (t SendType) IsValid() bool {
	switch t {
	case SendIndividual, SendEmergency, SendTemplate:
		return true
	}
	return false
}

func ParseSendTypeFromString(s string) (SendType, error) {
	st := SendType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid send type %q", domain.ErrValidation, s)
	}
	return st, nil
}

// SendRequest is one delivery request from the API surface or the event
// worker. Exactly one resolution mode applies, selected by Type.
type SendRequest struct {
	Type           SendType
	OrganizationID string
	Message        string
	TemplateKey    string
	TemplateData   domain.TemplateData
	Language       string
	PhoneNumber    string
	CustomerID     string
	Provider       string
}

// RecipientResult is one recipient's terminal outcome within a send.
type RecipientResult struct {
	Recipient string
	Phone     string
	Status    domain.DeliveryStatus
	MessageID string
	Provider  string
	Error     string
}

// SendResult aggregates per-recipient outcomes. A well-formed request always
// yields a result; individual failures live in Results.
type SendResult struct {
	Body        string
	Results     []RecipientResult
	TotalSent   int
	TotalFailed int
}

// DeliveryService delivers a rendered message to one or more recipients with
// provider-level fault tolerance and writes exactly one delivery record per
// recipient, success or not.
type DeliveryService struct {
	templates  *TemplateService
	customers  repository.CustomerRepository
	contacts   repository.EmergencyContactRepository
	deliveries repository.DeliveryRepository
	providers  []provider.SMSProvider
	limiter    ratelimit.RateLimiter
	publisher  queue.Publisher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewDeliveryService(
	templates *TemplateService,
	customers repository.CustomerRepository,
	contacts repository.EmergencyContactRepository,
	deliveries repository.DeliveryRepository,
	providers []provider.SMSProvider,
	limiter ratelimit.RateLimiter,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*DeliveryService, error) {
	if templates == nil {
		return nil, fmt.Errorf("template service is required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	if limiter == nil {
		limiter = ratelimit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliveryService{
		templates:  templates,
		customers:  customers,
		contacts:   contacts,
		deliveries: deliveries,
		providers:  providers,
		limiter:    limiter,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *DeliveryService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Send resolves recipients and message body, then fans out one delivery per
// recipient. Resolution must fully succeed before any provider call; a
// resolution failure aborts with no records written.
func (s *DeliveryService) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateSendRequest(req); err != nil {
		return nil, err
	}

	body, templateKey, language, err := s.resolveBody(ctx, req)
	if err != nil {
		return nil, err
	}
	// A rendered template can exceed the limit even when its content did not.
	if len([]rune(body)) > domain.MaxSMSBody {
		return nil, fmt.Errorf("%w: rendered message exceeds %d characters", domain.ErrValidation, domain.MaxSMSBody)
	}

	recipients, err := s.resolveRecipients(ctx, req)
	if err != nil {
		return nil, err
	}

	chain := s.providerChain(req.Provider)
	results := make([]RecipientResult, len(recipients))

	g, groupCtx := errgroup.WithContext(ctx)
	for i := range recipients {
		i := i
		recipient := recipients[i]
		g.Go(func() error {
			results[i] = s.deliverOne(groupCtx, req.OrganizationID, recipient, body, templateKey, language, chain)
			return nil
		})
	}
	// Workers never return errors; failures are captured per recipient.
	_ = g.Wait()

	result := &SendResult{Body: body, Results: results}
	for _, r := range results {
		if r.Status == domain.DeliverySent {
			result.TotalSent++
		} else {
			result.TotalFailed++
		}
	}

	s.logger.Info("send completed",
		zap.String("organizationId", req.OrganizationID),
		zap.String("type", req.Type.String()),
		zap.Int("sent", result.TotalSent),
		zap.Int("failed", result.TotalFailed),
	)

	return result, nil
}

// ListDeliveries returns the delivery log for an organization, newest first.
func (s *DeliveryService) ListDeliveries(ctx context.Context, params repository.ListParams) ([]domain.DeliveryRecord, int64, error) {
	if strings.TrimSpace(params.OrganizationID) == "" {
		return nil, 0, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	return s.deliveries.List(ctx, params)
}

func validateSendRequest(req SendRequest) error {
	if strings.TrimSpace(req.OrganizationID) == "" {
		return fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: invalid send type %q", domain.ErrValidation, req.Type)
	}

	switch req.Type {
	case SendTemplate:
		if strings.TrimSpace(req.TemplateKey) == "" {
			return fmt.Errorf("%w: template key is required", domain.ErrValidation)
		}
		if strings.TrimSpace(req.PhoneNumber) == "" && strings.TrimSpace(req.CustomerID) == "" {
			return fmt.Errorf("%w: phone number or customer id is required", domain.ErrValidation)
		}
	case SendIndividual:
		if strings.TrimSpace(req.Message) == "" {
			return fmt.Errorf("%w: message is required", domain.ErrValidation)
		}
		if strings.TrimSpace(req.PhoneNumber) == "" && strings.TrimSpace(req.CustomerID) == "" {
			return fmt.Errorf("%w: phone number or customer id is required", domain.ErrValidation)
		}
	case SendEmergency:
		if strings.TrimSpace(req.Message) == "" {
			return fmt.Errorf("%w: message is required", domain.ErrValidation)
		}
	}

	if len([]rune(req.Message)) > domain.MaxSMSBody {
		return fmt.Errorf("%w: message exceeds %d characters", domain.ErrValidation, domain.MaxSMSBody)
	}

	return nil
}

func (s *DeliveryService) resolveBody(ctx context.Context, req SendRequest) (body, templateKey, language string, err error) {
	language = domain.NormalizeLanguage(req.Language)

	if req.Type != SendTemplate {
		return strings.TrimSpace(req.Message), "", language, nil
	}

	tmpl, err := s.templates.ResolveTemplate(ctx, req.OrganizationID, req.TemplateKey, language)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", "", fmt.Errorf("%w: no template %q for language %q or fallback", domain.ErrValidation, req.TemplateKey, language)
		}
		return "", "", "", err
	}

	if validation := s.templates.ValidateTemplateData(tmpl, req.TemplateData); !validation.Valid {
		s.logger.Warn("template data is missing declared variables",
			zap.String("key", tmpl.Key),
			zap.Strings("missing", validation.MissingVariables),
		)
	}

	return s.templates.FormatTemplate(tmpl, req.TemplateData), tmpl.Key, tmpl.Language, nil
}

func (s *DeliveryService) resolveRecipients(ctx context.Context, req SendRequest) ([]domain.Recipient, error) {
	switch req.Type {
	case SendEmergency:
		return s.resolveEmergencyContacts(ctx, req.OrganizationID)
	default:
		recipient, err := s.resolveIndividual(ctx, req)
		if err != nil {
			return nil, err
		}
		return []domain.Recipient{*recipient}, nil
	}
}

func (s *DeliveryService) resolveIndividual(ctx context.Context, req SendRequest) (*domain.Recipient, error) {
	if phone := strings.TrimSpace(req.PhoneNumber); phone != "" {
		normalized, err := domain.NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		return &domain.Recipient{
			OrganizationID: req.OrganizationID,
			Phone:          normalized,
		}, nil
	}

	if s.customers == nil {
		return nil, fmt.Errorf("customer lookup is not configured")
	}

	customer, err := s.customers.GetByID(ctx, req.OrganizationID, strings.TrimSpace(req.CustomerID))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(customer.Phone) == "" {
		return nil, fmt.Errorf("%w: customer %s has no phone on file", domain.ErrValidation, customer.ID)
	}

	normalized, err := domain.NormalizePhone(customer.Phone)
	if err != nil {
		return nil, err
	}

	return &domain.Recipient{
		OrganizationID: req.OrganizationID,
		Phone:          normalized,
		Name:           customer.Name,
	}, nil
}

func (s *DeliveryService) resolveEmergencyContacts(ctx context.Context, orgID string) ([]domain.Recipient, error) {
	if s.contacts == nil {
		return nil, fmt.Errorf("emergency contact lookup is not configured")
	}

	contacts, err := s.contacts.ListActiveSMSEnabled(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, fmt.Errorf("%w: no active emergency contacts for organization", domain.ErrValidation)
	}

	recipients := make([]domain.Recipient, 0, len(contacts))
	for _, contact := range contacts {
		normalized, err := domain.NormalizePhone(contact.Phone)
		if err != nil {
			return nil, fmt.Errorf("%w: emergency contact %s: %s", domain.ErrValidation, contact.ID, err)
		}
		recipients = append(recipients, domain.Recipient{
			OrganizationID: orgID,
			Phone:          normalized,
			Name:           contact.Name,
		})
	}

	return recipients, nil
}

// providerChain returns the fixed fallback order, with an optional requested
// provider moved to the front.
func (s *DeliveryService) providerChain(preferred string) []provider.SMSProvider {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred == "" {
		return s.providers
	}

	chain := make([]provider.SMSProvider, 0, len(s.providers))
	for _, p := range s.providers {
		if p.Name() == preferred {
			chain = append([]provider.SMSProvider{p}, chain...)
			continue
		}
		chain = append(chain, p)
	}
	return chain
}

// deliverOne runs the provider fallback chain for a single recipient and
// writes its delivery record. It never returns an error; the terminal outcome
// lands in the result and the record.
func (s *DeliveryService) deliverOne(
	ctx context.Context,
	orgID string,
	recipient domain.Recipient,
	body, templateKey, language string,
	chain []provider.SMSProvider,
) RecipientResult {
	result := RecipientResult{
		Recipient: recipient.DisplayName(),
		Phone:     recipient.Phone,
		Status:    domain.DeliveryFailed,
	}

	var trail []string

	if err := s.limiter.Wait(ctx, orgID); err != nil {
		trail = append(trail, fmt.Sprintf("rate limiter: %s", err))
	} else {
		for _, p := range chain {
			if !p.Configured() {
				trail = append(trail, fmt.Sprintf("%s: %s (skipped)", p.Name(), provider.ErrNotConfigured))
				continue
			}

			sendStart := s.now()
			receipt, err := p.Send(ctx, provider.OutboundSMS{To: recipient.Phone, Body: body})
			if s.metrics != nil {
				s.metrics.ObserveProviderSendDuration(p.Name(), s.now().Sub(sendStart))
			}

			if err == nil {
				result.Status = domain.DeliverySent
				result.Provider = p.Name()
				result.MessageID = receipt.MessageID
				if len(trail) > 0 && s.metrics != nil {
					s.metrics.IncProviderFallback(p.Name())
				}
				break
			}

			trail = append(trail, err.Error())
			s.logger.Warn("provider send failed",
				zap.String("provider", p.Name()),
				zap.String("phone", recipient.Phone),
				zap.Error(err),
			)
		}
	}

	record := &domain.DeliveryRecord{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Phone:          recipient.Phone,
		Body:           body,
		TemplateKey:    templateKey,
		Language:       language,
		Direction:      domain.DirectionOutbound,
		Status:         result.Status,
		CreatedAt:      s.now().UTC(),
	}

	if result.Status == domain.DeliverySent {
		record.Provider = result.Provider
		record.ProviderMessageID = result.MessageID
		record.Cost = provider.CostEstimate(result.Provider)
		if s.metrics != nil {
			s.metrics.IncMessageSent(result.Provider)
		}
	} else {
		result.Error = strings.Join(trail, "; ")
		record.ErrorDetail = result.Error
		if s.metrics != nil {
			s.metrics.IncMessageFailed("providers_exhausted")
		}
	}

	// Best-effort: the provider outcome stands even if logging fails.
	if err := s.deliveries.Create(ctx, record); err != nil {
		s.logger.Error("failed to persist delivery record",
			zap.String("phone", recipient.Phone),
			zap.String("status", record.Status.String()),
			zap.Error(err),
		)
	}

	s.publishDeliveryEvent(ctx, record)

	return result
}

func (s *DeliveryService) publishDeliveryEvent(ctx context.Context, record *domain.DeliveryRecord) {
	if s.publisher == nil {
		return
	}

	event := queue.DeliveryEvent{
		MessageID:      record.ID,
		OrganizationID: record.OrganizationID,
		Phone:          record.Phone,
		Status:         record.Status.String(),
		Provider:       record.Provider,
		TemplateKey:    record.TemplateKey,
		OccurredAt:     record.CreatedAt,
	}
	if err := s.publisher.PublishDeliveryEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish delivery event",
			zap.String("messageId", record.ID),
			zap.Error(err),
		)
	}
}
