package response

import (
	"fmt"
	"slices"
	"strings"
)

// Schema describes constraints checked by a Validator.
type Schema struct {
	Status       []Status    `json:"status,omitempty" yaml:"status,omitempty"`
	MaxRiskLevel RiskLevel   `json:"maxRiskLevel,omitempty" yaml:"maxRiskLevel,omitempty"`
	Data         *DataSchema `json:"data,omitempty" yaml:"data,omitempty"`
}

// DataSchema constrains the response data.
type DataSchema struct {
	Required   []string                  `json:"required,omitempty" yaml:"required,omitempty"`
	Properties map[string]PropertySchema `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// PropertySchema constrains a single data key. Type is one of string,
// number, boolean, object or array.
type PropertySchema struct {
	Type string   `json:"type,omitempty" yaml:"type,omitempty"`
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// ValidationResult reports every schema violation.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validator checks a response against a schema.
type Validator func(*Response) ValidationResult

// NewValidator builds a Validator for schema.
func NewValidator(schema Schema) Validator {
	return func(r *Response) ValidationResult {
		var errs []string

		if len(schema.Status) > 0 && !slices.Contains(schema.Status, r.Status) {
			allowed := make([]string, len(schema.Status))
			for i, s := range schema.Status {
				allowed[i] = string(s)
			}
			errs = append(errs, fmt.Sprintf("status %q not allowed (allowed: %s)",
				r.Status, strings.Join(allowed, ", ")))
		}

		if schema.MaxRiskLevel != "" {
			for _, risk := range r.Risks {
				if risk.Level.Rank() > schema.MaxRiskLevel.Rank() {
					errs = append(errs, fmt.Sprintf("risk level %s exceeds maximum %s",
						risk.Level, schema.MaxRiskLevel))
				}
			}
		}

		if schema.Data != nil {
			errs = append(errs, validateData(r.Data, schema.Data)...)
		}

		return ValidationResult{Valid: len(errs) == 0, Errors: errs}
	}
}

func validateData(data map[string]any, schema *DataSchema) []string {
	var errs []string
	for _, key := range schema.Required {
		if _, ok := data[key]; !ok {
			errs = append(errs, fmt.Sprintf("missing required field %q", key))
		}
	}

	keys := make([]string, 0, len(schema.Properties))
	for k := range schema.Properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		prop := schema.Properties[key]
		value, ok := data[key]
		if !ok {
			continue
		}
		if prop.Type != "" && typeName(value) != prop.Type {
			errs = append(errs, fmt.Sprintf("%s: expected %s, got %s", key, prop.Type, typeName(value)))
			continue
		}
		n, isNum := toFloat(value)
		if !isNum {
			continue
		}
		if prop.Min != nil && n < *prop.Min {
			errs = append(errs, fmt.Sprintf("%s: value must be >= %s", key, formatNumber(*prop.Min)))
		}
		if prop.Max != nil && n > *prop.Max {
			errs = append(errs, fmt.Sprintf("%s: value must be <= %s", key, formatNumber(*prop.Max)))
		}
	}
	return errs
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any, []string:
		return "array"
	case nil:
		return "null"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func formatNumber(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", f), "0"), ".")
}
