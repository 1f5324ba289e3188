// Package validation checks content records against their type schema.
//
// Validation never reads the filesystem and never returns a Go error:
// violations come back as a structured Result so callers can surface
// field-level details.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ravenholt/lorekeep/internal/schema"
)

// FieldError is one rule violation.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result is the outcome of validating a record.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Validate checks record against s. Every field in the schema is visited in
// declaration order, and every rule on a field in rule order, so the error
// list is deterministic for identical input.
func Validate(s *schema.ContentSchema, record map[string]any) Result {
	var errs []FieldError

	for _, field := range s.Fields {
		value := record[field.ID]

		rules := field.Rules
		// A bare Required flag without an explicit rule still enforces presence.
		if field.Required && !hasRequiredRule(rules) {
			rules = append([]schema.ValidationRule{{
				Kind:    schema.RuleRequired,
				Message: fmt.Sprintf("%s is required", field.ID),
			}}, rules...)
		}

		for _, rule := range rules {
			if fe, ok := applyRule(field.ID, rule, value); !ok {
				errs = append(errs, fe)
			}
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func hasRequiredRule(rules []schema.ValidationRule) bool {
	for _, r := range rules {
		if r.Kind == schema.RuleRequired {
			return true
		}
	}
	return false
}

// applyRule checks a single rule. It returns ok=false with the violation
// when the rule fires.
func applyRule(fieldID string, rule schema.ValidationRule, value any) (FieldError, bool) {
	fail := func(msg string) (FieldError, bool) {
		if rule.Message != "" {
			msg = rule.Message
		}
		return FieldError{Field: fieldID, Rule: string(rule.Kind), Message: msg}, false
	}

	switch rule.Kind {
	case schema.RuleRequired:
		if isEmpty(value) {
			return fail(fmt.Sprintf("%s is required", fieldID))
		}

	case schema.RuleMin:
		// Min/max skip empty values; combine with required to enforce presence.
		if isEmpty(value) {
			break
		}
		if n := size(value); n >= 0 && float64(n) < rule.Limit {
			return fail(fmt.Sprintf("%s is below the minimum of %v", fieldID, rule.Limit))
		}
		if f, ok := asNumber(value); ok && f < rule.Limit {
			return fail(fmt.Sprintf("%s must be at least %v", fieldID, rule.Limit))
		}

	case schema.RuleMax:
		if isEmpty(value) {
			break
		}
		if n := size(value); n >= 0 && float64(n) > rule.Limit {
			return fail(fmt.Sprintf("%s exceeds the maximum of %v", fieldID, rule.Limit))
		}
		if f, ok := asNumber(value); ok && f > rule.Limit {
			return fail(fmt.Sprintf("%s must be at most %v", fieldID, rule.Limit))
		}

	case schema.RulePattern:
		s, ok := value.(string)
		if !ok || isEmpty(value) || rule.Pattern == nil {
			break
		}
		if !rule.Pattern.MatchString(s) {
			return fail(fmt.Sprintf("%s has an invalid format", fieldID))
		}

	case schema.RuleCustom:
		if rule.Custom == nil {
			break
		}
		if err := rule.Custom(value); err != nil {
			if msg := err.Error(); msg != "" {
				return FieldError{Field: fieldID, Rule: string(rule.Kind), Message: msg}, false
			}
			return fail(fmt.Sprintf("%s is invalid", fieldID))
		}
	}

	return FieldError{}, true
}

// isEmpty reports whether value counts as absent: nil, a blank string, an
// empty slice, or an empty map.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// size returns the length notion for strings (runes) and arrays (elements),
// or -1 when the value has none.
func size(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []any:
		return len(v)
	case []string:
		return len(v)
	}
	return -1
}

// asNumber extracts a numeric value for min/max comparison.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}
