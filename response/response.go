package response

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Status is the outcome category of a Response.
type Status string

// Response statuses.
const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusInfo    Status = "info"
)

// Severity ranks statuses for merging: error > warning > success > info.
// Unknown statuses rank below info.
func (s Status) Severity() int {
	switch s {
	case StatusError:
		return 3
	case StatusWarning:
		return 2
	case StatusSuccess:
		return 1
	case StatusInfo:
		return 0
	default:
		return -1
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.Severity() >= 0
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// RiskLevel classifies a Risk.
type RiskLevel string

// Risk levels, lowest first.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels: high > medium > low. Unknown levels rank 0.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// ParseRiskLevel parses a risk level name case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	l := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Rank() > 0
}

// Suggestion is a recommended follow-up action.
type Suggestion struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
}

// Risk is a flagged hazard attached to a Response.
type Risk struct {
	Level       RiskLevel `json:"level"`
	Description string    `json:"description"`
}

// Response is the enriched result envelope passed through the enhancer
// pipeline. Fields are readable directly; mutation goes through the
// Add/Set methods so suggestion and risk lists only grow.
type Response struct {
	Status      Status         `json:"status"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Suggestions []Suggestion   `json:"suggestions,omitempty"`
	Risks       []Risk         `json:"risks,omitempty"`

	teamActivity *TeamActivity
}

// New creates a Response with the given status, message and data.
func New(status Status, message string, data map[string]any) *Response {
	return &Response{
		Status:   status,
		Message:  message,
		Data:     data,
		Context:  map[string]any{},
		Metadata: map[string]any{},
	}
}

// Success creates a success Response.
func Success(message string, data map[string]any) *Response {
	return New(StatusSuccess, message, data)
}

// Warning creates a warning Response.
func Warning(message string, data map[string]any) *Response {
	return New(StatusWarning, message, data)
}

// Info creates an informational Response.
func Info(message string, data map[string]any) *Response {
	return New(StatusInfo, message, data)
}

// Error creates an error Response. A non-nil err is recorded as data.error.
func Error(message string, err error) *Response {
	var data map[string]any
	if err != nil {
		data = map[string]any{"error": err.Error()}
	}
	return New(StatusError, message, data)
}

// AddMetadata sets a metadata key.
func (r *Response) AddMetadata(key string, value any) *Response {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
	return r
}

// AddContext sets a caller context key.
func (r *Response) AddContext(key string, value any) *Response {
	if r.Context == nil {
		r.Context = map[string]any{}
	}
	r.Context[key] = value
	return r
}

// AddSuggestion appends a suggestion.
func (r *Response) AddSuggestion(action, description, priority string) *Response {
	r.Suggestions = append(r.Suggestions, Suggestion{
		Action:      action,
		Description: description,
		Priority:    priority,
	})
	return r
}

// AddRisk appends a risk.
func (r *Response) AddRisk(level RiskLevel, description string) *Response {
	r.Risks = append(r.Risks, Risk{Level: level, Description: description})
	return r
}

// SetTeamActivity replaces the team activity block.
func (r *Response) SetTeamActivity(ta *TeamActivity) *Response {
	r.teamActivity = ta
	return r
}

// TeamActivity returns the team activity block, or nil if it was never set.
func (r *Response) TeamActivity() *TeamActivity {
	return r.teamActivity
}

// HighestRisk returns the highest recorded risk level. ok is false when
// the response carries no risks.
func (r *Response) HighestRisk() (level RiskLevel, ok bool) {
	for _, risk := range r.Risks {
		if !ok || risk.Level.Rank() > level.Rank() {
			level = risk.Level
			ok = true
		}
	}
	return level, ok
}

// ToObject renders the response as a plain map, suitable for JSON output
// or comparison.
func (r *Response) ToObject() map[string]any {
	obj := map[string]any{
		"status":      string(r.Status),
		"message":     r.Message,
		"data":        cloneMap(r.Data),
		"context":     cloneMap(r.Context),
		"metadata":    cloneMap(r.Metadata),
		"suggestions": append([]Suggestion{}, r.Suggestions...),
		"risks":       append([]Risk{}, r.Risks...),
	}
	if r.teamActivity != nil {
		obj["teamActivity"] = r.teamActivity.Clone()
	}
	return obj
}

// MarshalJSON includes the team activity block when present.
func (r *Response) MarshalJSON() ([]byte, error) {
	type plain Response
	return json.Marshal(struct {
		*plain
		TeamActivity *TeamActivity `json:"teamActivity,omitempty"`
	}{
		plain:        (*plain)(r),
		TeamActivity: r.teamActivity,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Response) UnmarshalJSON(b []byte) error {
	type plain Response
	aux := struct {
		*plain
		TeamActivity *TeamActivity `json:"teamActivity,omitempty"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.teamActivity = aux.TeamActivity
	return nil
}

// Clone returns a deep copy of r. Nested maps and slices inside data,
// context and metadata are copied; other values are shared.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := &Response{
		Status:   r.Status,
		Message:  r.Message,
		Data:     cloneMap(r.Data),
		Context:  cloneMap(r.Context),
		Metadata: cloneMap(r.Metadata),
	}
	if r.Suggestions != nil {
		c.Suggestions = append([]Suggestion(nil), r.Suggestions...)
	}
	if r.Risks != nil {
		c.Risks = append([]Risk(nil), r.Risks...)
	}
	if r.teamActivity != nil {
		c.teamActivity = r.teamActivity.Clone()
	}
	return c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies maps, slices, arrays and pointers of any type so
// that a clone shares no mutable state with its source. Other values are
// returned as they are.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case string, bool, int, int64, float64:
		return v
	}
	return deepCopy(reflect.ValueOf(v), map[uintptr]reflect.Value{}).Interface()
}

func deepCopy(v reflect.Value, seen map[uintptr]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value(), seen))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		if c, ok := seen[v.Pointer()]; ok {
			return c
		}
		out := reflect.New(v.Type().Elem())
		seen[v.Pointer()] = out
		out.Elem().Set(deepCopy(v.Elem(), seen))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem(), seen))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i), seen))
			}
		}
		return out
	default:
		return v
	}
}
