package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Message keys produced by the validators. Every key has an entry in the
// translation catalog.
const (
	KeyRequired  = "validation.required"
	KeyNumber    = "validation.number"
	KeyInteger   = "validation.integer"
	KeyNegative  = "validation.negative"
	KeyMin       = "validation.min"
	KeyMax       = "validation.max"
	KeyEmail     = "validation.email"
	KeyPattern   = "validation.pattern"
	KeyMinLength = "validation.minLength"
	KeyOneOf     = "validation.oneOf"
	KeyType      = "validation.type"
)

// Failure codes
const (
	CodeRequired  = "REQUIRED"
	CodeNumber    = "NOT_A_NUMBER"
	CodeInteger   = "NOT_AN_INTEGER"
	CodeMin       = "MINIMUM_VIOLATION"
	CodeMax       = "MAXIMUM_VIOLATION"
	CodePattern   = "PATTERN_MISMATCH"
	CodeMinLength = "MIN_LENGTH_VIOLATION"
	CodeOneOf     = "INVALID_ENUM_VALUE"
	CodeType      = "INVALID_TYPE"
)

// MaxInteger bounds every Integer rule so accepted values convert to int
// without overflow.
const MaxInteger = math.MaxInt32

// EmailPattern is the case-insensitive address format accepted by the form.
var EmailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// Rule is the declarative constraint set for one field. The zero Rule
// accepts anything.
type Rule struct {
	Required   bool
	Numeric    bool
	Integer    bool
	Min        *float64
	Max        *float64
	Pattern    *regexp.Regexp
	PatternKey string
	MinLength  int
	OneOf      []string
}

type FieldRule struct {
	Field string
	Rule  Rule
}

// Schema is an ordered rule list. A nil Schema means no constraint.
type Schema []FieldRule

// FieldError describes why one field failed. Message is filled in by the
// caller from MessageKey and Args.
type FieldError struct {
	Field      string        `json:"field"`
	Code       string        `json:"code"`
	MessageKey string        `json:"messageKey"`
	Args       []interface{} `json:"args,omitempty"`
	Message    string        `json:"message,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

func Float(v float64) *float64 { return &v }

// Lookup returns the rule for field.
func (s Schema) Lookup(field string) (Rule, bool) {
	for _, fr := range s {
		if fr.Field == field {
			return fr.Rule, true
		}
	}
	return Rule{}, false
}

// Fields lists the field names in declaration order.
func (s Schema) Fields() []string {
	out := make([]string, len(s))
	for i, fr := range s {
		out[i] = fr.Field
	}
	return out
}

// Validate checks every declared field of values and returns at most one
// error per field, in declaration order. Undeclared keys are not inspected.
func (s Schema) Validate(values map[string]interface{}) []FieldError {
	var errs []FieldError
	for _, fr := range s {
		if fe := ValidateValue(fr.Field, values[fr.Field], fr.Rule); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// Normalize returns a copy of values with numeric fields converted to
// numbers so they decode into typed sections. Call it only after Validate
// passed.
func (s Schema) Normalize(values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, fr := range s {
		if !fr.Rule.Numeric && !fr.Rule.Integer {
			continue
		}
		v, ok := out[fr.Field]
		if !ok || isEmpty(v) {
			continue
		}
		n, ok := toNumber(v)
		if !ok {
			continue
		}
		if fr.Rule.Integer {
			out[fr.Field] = int64(n)
		} else {
			out[fr.Field] = n
		}
	}
	return out
}

// ValidateValue applies rule to value. Checks run in a fixed order and stop
// at the first failure: required, numeric/integer, min, max, pattern, minLength,
// oneOf. An empty value that is not required passes.
func ValidateValue(field string, value interface{}, rule Rule) *FieldError {
	if isEmpty(value) {
		if rule.Required {
			return &FieldError{Field: field, Code: CodeRequired, MessageKey: KeyRequired}
		}
		return nil
	}

	if rule.Numeric || rule.Integer || rule.Min != nil || rule.Max != nil {
		n, ok := toNumber(value)
		if !ok {
			return &FieldError{Field: field, Code: CodeNumber, MessageKey: KeyNumber}
		}
		if rule.Integer && n != math.Trunc(n) {
			return &FieldError{Field: field, Code: CodeInteger, MessageKey: KeyInteger}
		}
		if rule.Min != nil && n < *rule.Min {
			if *rule.Min == 0 {
				return &FieldError{Field: field, Code: CodeMin, MessageKey: KeyNegative}
			}
			return &FieldError{Field: field, Code: CodeMin, MessageKey: KeyMin, Args: []interface{}{*rule.Min}}
		}
		if rule.Max != nil && n > *rule.Max {
			return &FieldError{Field: field, Code: CodeMax, MessageKey: KeyMax, Args: []interface{}{*rule.Max}}
		}
		if rule.Integer && math.Abs(n) > MaxInteger {
			return &FieldError{Field: field, Code: CodeMax, MessageKey: KeyMax, Args: []interface{}{int64(MaxInteger)}}
		}
	}

	if !rule.Numeric && !rule.Integer && rule.Min == nil && rule.Max == nil && rule.isText() {
		if _, ok := value.(string); !ok {
			return &FieldError{Field: field, Code: CodeType, MessageKey: KeyType}
		}
	}

	str := toString(value)

	if rule.Pattern != nil && !rule.Pattern.MatchString(str) {
		key := rule.PatternKey
		if key == "" {
			key = KeyPattern
		}
		return &FieldError{Field: field, Code: CodePattern, MessageKey: key}
	}

	if rule.MinLength > 0 && utf8.RuneCountInString(str) < rule.MinLength {
		return &FieldError{
			Field:      field,
			Code:       CodeMinLength,
			MessageKey: KeyMinLength,
			Args:       []interface{}{rule.MinLength},
		}
	}

	if len(rule.OneOf) > 0 {
		found := false
		for _, allowed := range rule.OneOf {
			if str == allowed {
				found = true
				break
			}
		}
		if !found {
			return &FieldError{Field: field, Code: CodeOneOf, MessageKey: KeyOneOf}
		}
	}

	return nil
}

func (r Rule) isText() bool {
	return r.Required || r.Pattern != nil || r.MinLength > 0 || len(r.OneOf) > 0
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
