package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/serviceai/sms-dispatch/internal/cache"
	"github.com/serviceai/sms-dispatch/internal/domain"
	"github.com/serviceai/sms-dispatch/internal/repository"
	"go.uber.org/zap"
)

// TemplateService maps a semantic message intent to localized, parameterized
// text. Lookups go cache first, then the backing store; upserts refresh the
// cache entry.
type TemplateService struct {
	templates       repository.TemplateRepository
	cache           cache.Cache
	logger          *zap.Logger
	defaultLanguage string
}

func NewTemplateService(
	templates repository.TemplateRepository,
	templateCache cache.Cache,
	defaultLanguage string,
	logger *zap.Logger,
) (*TemplateService, error) {
	if templates == nil {
		return nil, fmt.Errorf("template repository is required")
	}
	if templateCache == nil {
		templateCache = cache.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TemplateService{
		templates:       templates,
		cache:           templateCache,
		logger:          logger,
		defaultLanguage: domain.NormalizeLanguage(defaultLanguage),
	}, nil
}

// GetTemplate returns the active template for (org, key, language), reading
// the cache before the store. A store hit is cached for subsequent calls.
func (s *TemplateService) GetTemplate(ctx context.Context, orgID, key, language string) (*domain.Template, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: template key is required", domain.ErrValidation)
	}
	language = domain.NormalizeLanguage(language)

	cacheKey := domain.TemplateCacheKey(orgID, key, language)
	if cached, ok, err := s.cache.Get(ctx, cacheKey); err != nil {
		s.logger.Warn("template cache read failed",
			zap.String("cacheKey", cacheKey),
			zap.Error(err),
		)
	} else if ok {
		var tmpl domain.Template
		if err := json.Unmarshal([]byte(cached), &tmpl); err == nil {
			// Deactivated rows must never be served; drop the entry and
			// consult the store, which filters on is_active.
			if tmpl.IsActive {
				return &tmpl, nil
			}
			_ = s.cache.Delete(ctx, cacheKey)
		} else {
			s.logger.Warn("discarding undecodable template cache entry",
				zap.String("cacheKey", cacheKey),
			)
			_ = s.cache.Delete(ctx, cacheKey)
		}
	}

	tmpl, err := s.templates.GetActive(ctx, orgID, key, language)
	if err != nil {
		return nil, err
	}

	s.cacheTemplate(ctx, tmpl)
	return tmpl, nil
}

// ResolveTemplate is GetTemplate with language fallback: a missing row for the
// requested language falls back to the default language instead of failing.
func (s *TemplateService) ResolveTemplate(ctx context.Context, orgID, key, language string) (*domain.Template, error) {
	language = domain.NormalizeLanguage(language)

	tmpl, err := s.GetTemplate(ctx, orgID, key, language)
	if err == nil {
		return tmpl, nil
	}
	if !errors.Is(err, domain.ErrNotFound) || language == s.defaultLanguage {
		return nil, err
	}

	s.logger.Info("template missing for requested language, using fallback",
		zap.String("key", key),
		zap.String("requested", language),
		zap.String("fallback", s.defaultLanguage),
	)
	return s.GetTemplate(ctx, orgID, key, s.defaultLanguage)
}

// FormatTemplate substitutes data into the template content. Unresolved
// placeholders are logged as a warning and left intact; the caller contract
// is to supply every declared variable.
func (s *TemplateService) FormatTemplate(tmpl *domain.Template, data domain.TemplateData) string {
	if tmpl == nil {
		return ""
	}

	rendered, unresolved := domain.RenderTemplate(tmpl.Content, data)
	if len(unresolved) > 0 {
		s.logger.Warn("template rendered with unresolved placeholders",
			zap.String("key", tmpl.Key),
			zap.String("language", tmpl.Language),
			zap.Strings("unresolved", unresolved),
		)
	}
	return rendered
}

// ValidateTemplateData reports declared variables missing from data and data
// keys the template does not declare. Extra variables are informational only.
func (s *TemplateService) ValidateTemplateData(tmpl *domain.Template, data domain.TemplateData) domain.TemplateValidation {
	if tmpl == nil {
		return domain.TemplateValidation{}
	}
	return tmpl.ValidateData(data)
}

// SaveTemplate upserts on the (org, key, language) uniqueness contract and
// refreshes the cache entry. Variables default to the placeholders found in
// the content; a declared list that disagrees with the content is flagged,
// not rejected.
func (s *TemplateService) SaveTemplate(ctx context.Context, tmpl *domain.Template) (*domain.Template, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("%w: template is required", domain.ErrValidation)
	}

	tmpl.Key = strings.TrimSpace(tmpl.Key)
	tmpl.Language = domain.NormalizeLanguage(tmpl.Language)
	tmpl.Content = strings.TrimSpace(tmpl.Content)

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}

	placeholders := tmpl.Placeholders()
	if len(tmpl.Variables) == 0 {
		tmpl.Variables = placeholders
	} else if !sameStringSet(tmpl.Variables, placeholders) {
		s.logger.Warn("declared variables disagree with template placeholders",
			zap.String("key", tmpl.Key),
			zap.String("language", tmpl.Language),
			zap.Strings("declared", tmpl.Variables),
			zap.Strings("placeholders", placeholders),
		)
	}

	if err := s.templates.Upsert(ctx, tmpl); err != nil {
		return nil, err
	}

	s.cacheTemplate(ctx, tmpl)
	return tmpl, nil
}

func (s *TemplateService) GetTemplatesByCategory(ctx context.Context, orgID string, category domain.Category, language string) ([]domain.Template, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: invalid category %q", domain.ErrValidation, category)
	}
	return s.templates.ListByCategory(ctx, orgID, category, domain.NormalizeLanguage(language))
}

func (s *TemplateService) GetTemplateKeys(ctx context.Context, orgID string) ([]string, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	return s.templates.ListKeys(ctx, orgID)
}

func (s *TemplateService) DefaultLanguage() string {
	return s.defaultLanguage
}

// Cache write failures only cost freshness, never correctness.
func (s *TemplateService) cacheTemplate(ctx context.Context, tmpl *domain.Template) {
	// Lookups serve active templates only; an upsert that deactivates the
	// row evicts instead of caching.
	if !tmpl.IsActive {
		if err := s.cache.Delete(ctx, tmpl.CacheKey()); err != nil {
			s.logger.Warn("template cache eviction failed",
				zap.String("cacheKey", tmpl.CacheKey()),
				zap.Error(err),
			)
		}
		return
	}

	encoded, err := json.Marshal(tmpl)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, tmpl.CacheKey(), string(encoded)); err != nil {
		s.logger.Warn("template cache write failed",
			zap.String("cacheKey", tmpl.CacheKey()),
			zap.Error(err),
		)
	}
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
