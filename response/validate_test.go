package response

import (
	"strings"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestValidator(t *testing.T) {
	validate := NewValidator(Schema{
		Status:       []Status{StatusSuccess, StatusInfo},
		MaxRiskLevel: RiskMedium,
		Data: &DataSchema{
			Required: []string{"name"},
			Properties: map[string]PropertySchema{
				"name":  {Type: "string"},
				"count": {Type: "number", Min: ptr(0)},
				"tags":  {Type: "array"},
			},
		},
	})

	tests := []struct {
		name     string
		r        *Response
		valid    bool
		contains []string
	}{
		{
			name:  "valid",
			r:     Success("ok", map[string]any{"name": "x", "count": 2, "tags": []string{"a"}}),
			valid: true,
		},
		{
			name:     "negative count",
			r:        Success("ok", map[string]any{"name": "x", "count": -1}),
			contains: []string{"value must be >= 0"},
		},
		{
			name:     "missing required",
			r:        Success("ok", map[string]any{"count": 1}),
			contains: []string{`missing required field "name"`},
		},
		{
			name:     "wrong type",
			r:        Success("ok", map[string]any{"name": 5}),
			contains: []string{"name: expected string, got number"},
		},
		{
			name:     "disallowed status",
			r:        Warning("hm", map[string]any{"name": "x"}),
			contains: []string{`status "warning" not allowed`},
		},
		{
			name: "risk too high",
			r: Success("ok", map[string]any{"name": "x"}).
				AddRisk(RiskHigh, "danger"),
			contains: []string{"risk level high exceeds maximum medium"},
		},
		{
			name:     "several violations",
			r:        Error("bad", nil),
			contains: []string{"status", "missing required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validate(tt.r)
			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (errors: %v)", got.Valid, tt.valid, got.Errors)
			}
			if tt.valid && len(got.Errors) != 0 {
				t.Errorf("Errors = %v, want none", got.Errors)
			}
			joined := strings.Join(got.Errors, "\n")
			for _, want := range tt.contains {
				if !strings.Contains(joined, want) {
					t.Errorf("errors %q do not mention %q", got.Errors, want)
				}
			}
		})
	}
}

func TestValidatorEmptySchema(t *testing.T) {
	got := NewValidator(Schema{})(Error("anything", nil))
	if !got.Valid {
		t.Errorf("empty schema should accept everything, got %v", got.Errors)
	}
}
