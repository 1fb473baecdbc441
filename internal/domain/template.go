package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultLanguage is the fallback language used when no template row exists
// for the requested language.
const DefaultLanguage = "en"

// Category groups templates by message intent.
type Category string

const (
	CategoryAppointment  Category = "appointment"
	CategoryEmergency    Category = "emergency"
	CategoryReminder     Category = "reminder"
	CategoryConfirmation Category = "confirmation"
	CategoryFollowUp     Category = "follow_up"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryAppointment, CategoryEmergency, CategoryReminder, CategoryConfirmation, CategoryFollowUp:
		return true
	}
	return false
}

func ParseCategoryFromString(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: invalid category %q", ErrValidation, s)
	}
	return c, nil
}

// placeholderPattern matches {{variable}} slots in template content.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// Template is a localized, parameterized message body identified by the
// composite key (organization, key, language).
type Template struct {
	ID             string
	OrganizationID string
	Key            string
	Language       string
	Content        string
	Variables      []string
	Category       Category
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Template) Validate() error {
	if strings.TrimSpace(t.OrganizationID) == "" {
		return fmt.Errorf("%w: organization id is required", ErrValidation)
	}
	if strings.TrimSpace(t.Key) == "" {
		return fmt.Errorf("%w: template key is required", ErrValidation)
	}
	if strings.TrimSpace(t.Language) == "" {
		return fmt.Errorf("%w: template language is required", ErrValidation)
	}
	if strings.TrimSpace(t.Content) == "" {
		return fmt.Errorf("%w: template content is required", ErrValidation)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: invalid category %q", ErrValidation, t.Category)
	}
	return nil
}

// CacheKey returns the process cache key for the (org, key, language) tuple.
func (t *Template) CacheKey() string {
	return TemplateCacheKey(t.OrganizationID, t.Key, t.Language)
}

func TemplateCacheKey(orgID, key, language string) string {
	return fmt.Sprintf("template:%s:%s_%s", orgID, key, NormalizeLanguage(language))
}

// Placeholders returns the sorted, deduplicated variable names referenced by
// the template content.
func (t *Template) Placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(t.Content, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	sort.Strings(names)
	return names
}

func NormalizeLanguage(language string) string {
	normalized := strings.ToLower(strings.TrimSpace(language))
	if normalized == "" {
		return DefaultLanguage
	}
	return normalized
}

// TemplateData carries named variable values for substitution. Values are
// stringified once, centrally, via Stringify.
type TemplateData map[string]any

// Keys returns the sorted variable names present in the data bag.
func (d TemplateData) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stringify converts a template variable value to its message form. Dates
// render as YYYY-MM-DD HH:MM, floats trim trailing zeros.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02 15:04")
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// TemplateValidation reports the symmetric difference between a template's
// declared variables and the supplied data keys.
type TemplateValidation struct {
	Valid            bool
	MissingVariables []string
	ExtraVariables   []string
}

// ValidateData checks the supplied data against the declared variable list.
// Valid means every declared variable is present; extra variables are
// informational and never block a send.
func (t *Template) ValidateData(data TemplateData) TemplateValidation {
	declared := make(map[string]struct{}, len(t.Variables))
	result := TemplateValidation{Valid: true}

	for _, name := range t.Variables {
		declared[name] = struct{}{}
		if _, ok := data[name]; !ok {
			result.Valid = false
			result.MissingVariables = append(result.MissingVariables, name)
		}
	}

	for _, name := range data.Keys() {
		if _, ok := declared[name]; !ok {
			result.ExtraVariables = append(result.ExtraVariables, name)
		}
	}

	sort.Strings(result.MissingVariables)
	return result
}

// RenderTemplate substitutes every {{name}} slot that has a value in data.
// Slots without a value are left intact and reported back; rendering never
// fails.
func RenderTemplate(content string, data TemplateData) (string, []string) {
	var unresolved []string
	seen := make(map[string]struct{})

	rendered := placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := data[name]
		if !ok {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				unresolved = append(unresolved, name)
			}
			return match
		}
		return Stringify(value)
	})

	sort.Strings(unresolved)
	return rendered, unresolved
}
