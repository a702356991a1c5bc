package response

import (
	"encoding/json"
	"fmt"
)

// Legacy is the flat result shape used by older callers.
type Legacy struct {
	Success      bool               `json:"success"`
	Status       Status             `json:"status,omitempty"`
	Message      string             `json:"message,omitempty"`
	Error        string             `json:"error,omitempty"`
	Code         string             `json:"code,omitempty"`
	Data         map[string]any     `json:"data,omitempty"`
	Context      map[string]any     `json:"context,omitempty"`
	Suggestions  []LegacySuggestion `json:"suggestions,omitempty"`
	Risks        []LegacyRisk       `json:"risks,omitempty"`
	TeamActivity *TeamActivity      `json:"teamActivity,omitempty"`
}

// LegacySuggestion is either a bare string or a suggestion object.
type LegacySuggestion struct {
	Text   string
	Object *Suggestion
}

// UnmarshalJSON accepts a string or an object.
func (s *LegacySuggestion) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		s.Text = text
		return nil
	}
	var obj Suggestion
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("legacy suggestion: %w", err)
	}
	s.Object = &obj
	return nil
}

// MarshalJSON writes the object form when present, else the string.
func (s LegacySuggestion) MarshalJSON() ([]byte, error) {
	if s.Object != nil {
		return json.Marshal(s.Object)
	}
	return json.Marshal(s.Text)
}

// LegacyRisk carries an unvalidated level string.
type LegacyRisk struct {
	Level       string `json:"level"`
	Description string `json:"description"`
}

// FromLegacy converts a legacy result into a Response.
//
// An unsuccessful result becomes an error response whose data carries the
// legacy error and code. An explicit status is honoured when it agrees
// with success. String suggestions become descriptions of a generic
// "suggestion" action; unknown risk levels become medium.
func FromLegacy(l Legacy) *Response {
	status := StatusSuccess
	switch {
	case !l.Success:
		status = StatusError
	case l.Status.Valid() && l.Status != StatusError:
		status = l.Status
	}

	message := l.Message
	if message == "" && l.Error != "" {
		message = l.Error
	}

	r := New(status, message, cloneMap(l.Data))
	if !l.Success {
		if l.Error != "" {
			r.Data = withKey(r.Data, "error", l.Error)
		}
		if l.Code != "" {
			r.Data = withKey(r.Data, "code", l.Code)
		}
	}
	for k, v := range l.Context {
		r.AddContext(k, cloneValue(v))
	}

	for _, s := range l.Suggestions {
		if s.Object != nil {
			r.AddSuggestion(s.Object.Action, s.Object.Description, s.Object.Priority)
			continue
		}
		r.AddSuggestion("suggestion", s.Text, "medium")
	}
	for _, risk := range l.Risks {
		level, ok := ParseRiskLevel(risk.Level)
		if !ok {
			level = RiskMedium
		}
		r.AddRisk(level, risk.Description)
	}

	if l.TeamActivity != nil {
		r.SetTeamActivity(l.TeamActivity.Clone())
	}
	return r
}

// ToLegacy converts a Response into the legacy shape. Error responses take
// their error text and code from data.error and data.code; a response
// without them leaves the legacy fields empty so that FromLegacy does not
// invent them.
func ToLegacy(r *Response) Legacy {
	l := Legacy{
		Success:      r.Status != StatusError,
		Status:       r.Status,
		Message:      r.Message,
		Data:         cloneMap(r.Data),
		Context:      cloneMap(r.Context),
		TeamActivity: r.TeamActivity().Clone(),
	}
	if len(l.Context) == 0 {
		l.Context = nil
	}

	if !l.Success {
		if e, ok := r.Data["error"].(string); ok {
			l.Error = e
		}
		if code, ok := r.Data["code"].(string); ok {
			l.Code = code
		}
	}

	for _, s := range r.Suggestions {
		l.Suggestions = append(l.Suggestions, LegacySuggestion{Object: &s})
	}
	for _, risk := range r.Risks {
		l.Risks = append(l.Risks, LegacyRisk{Level: string(risk.Level), Description: risk.Description})
	}
	return l
}

func withKey(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = map[string]any{}
	}
	m[key] = value
	return m
}
