package response

import (
	"fmt"
	"reflect"
	"slices"
)

// TransformData returns a copy of r whose data is fn applied to a copy of
// r's data. All other fields are preserved.
func TransformData(r *Response, fn func(map[string]any) map[string]any) *Response {
	c := r.Clone()
	c.Data = fn(c.Data)
	return c
}

// MergeStrategy selects how Merge combines responses.
type MergeStrategy string

// Merge strategies.
const (
	MergeCombine    MergeStrategy = ""
	MergeFirstError MergeStrategy = "first-error"
)

// MergeOptions configures Merge.
type MergeOptions struct {
	Strategy MergeStrategy
	// Message overrides the default "Combined response".
	Message string
}

// Merge combines several responses into one.
//
// No responses yield an info response. A single response is returned as
// is. The first-error strategy returns the first error response
// unchanged, falling back to combining when none failed. Combining takes
// the most severe status, keys each input's data by its message and
// concatenates suggestions and risks. Repeated messages get a "#n" suffix.
// Nil entries are ignored.
func Merge(responses []*Response, opts MergeOptions) *Response {
	if slices.Contains(responses, nil) {
		responses = slices.DeleteFunc(slices.Clone(responses), func(r *Response) bool { return r == nil })
	}
	switch len(responses) {
	case 0:
		return Info("No responses to merge", nil)
	case 1:
		return responses[0]
	}

	if opts.Strategy == MergeFirstError {
		for _, r := range responses {
			if r.Status == StatusError {
				return r
			}
		}
	}

	status := responses[0].Status
	data := make(map[string]any, len(responses))
	seen := make(map[string]int, len(responses))
	var suggestions []Suggestion
	var risks []Risk

	for _, r := range responses {
		if r.Status.Severity() > status.Severity() {
			status = r.Status
		}

		key := r.Message
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", r.Message, n)
		}
		data[key] = cloneMap(r.Data)

		suggestions = append(suggestions, r.Suggestions...)
		risks = append(risks, r.Risks...)
	}

	message := opts.Message
	if message == "" {
		message = "Combined response"
	}

	merged := New(status, message, data)
	merged.Suggestions = suggestions
	merged.Risks = risks
	return merged
}

// Criteria selects responses in Filter. Zero-valued fields are ignored.
type Criteria struct {
	Status       Status
	MinRiskLevel RiskLevel
	MaxRiskLevel RiskLevel
	// DataMatches must be a subset of the response data.
	DataMatches map[string]any
	Predicate   func(*Response) bool
}

// Filter returns r when it satisfies every criterion, otherwise nil.
// Risk bounds compare against the highest recorded risk; a response with
// no risks never satisfies a minimum and always satisfies a maximum.
func Filter(r *Response, c Criteria) *Response {
	if r == nil {
		return nil
	}
	if c.Status != "" && r.Status != c.Status {
		return nil
	}

	highest, hasRisk := r.HighestRisk()
	if c.MinRiskLevel != "" && (!hasRisk || highest.Rank() < c.MinRiskLevel.Rank()) {
		return nil
	}
	if c.MaxRiskLevel != "" && hasRisk && highest.Rank() > c.MaxRiskLevel.Rank() {
		return nil
	}

	for k, want := range c.DataMatches {
		got, ok := r.Data[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return nil
		}
	}

	if c.Predicate != nil && !c.Predicate(r) {
		return nil
	}
	return r
}

// Processor is one step of Chain.
type Processor func(*Response) *Response

// Chain feeds r through each processor in order. A processor returning nil
// leaves the current response in place.
func Chain(r *Response, processors ...Processor) *Response {
	cur := r
	for _, p := range processors {
		if next := p(cur); next != nil {
			cur = next
		}
	}
	return cur
}
