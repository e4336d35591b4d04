package domain

import (
	"bytes"
	"encoding/json"
)

// Field is an optional value that distinguishes "absent" from "present but empty".
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a present field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// IsZero lets encoding/json omit unset fields via the omitzero tag option.
func (f Field[T]) IsZero() bool { return !f.Set }

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Value, f.Set = zero, false
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Set = true
	return nil
}

// Confidence is the model's self-reported certainty.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether c is one of low, medium or high.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Assessment is the normalized safety answer shown to the user.
type Assessment struct {
	Hazards          Field[[]string]   `json:"hazards,omitzero"`
	PPERequired      Field[[]string]   `json:"ppe_required,omitzero"`
	PPERecommended   Field[[]string]   `json:"ppe_recommended,omitzero"`
	ImmediateActions Field[[]string]   `json:"immediate_actions,omitzero"`
	SaferSubstitutes Field[[]string]   `json:"safer_substitutes,omitzero"`
	Citations        Field[[]string]   `json:"citations,omitzero"`
	Confidence       Field[Confidence] `json:"confidence,omitzero"`
	ExplainShort     Field[string]     `json:"explain_short,omitzero"`
	RawText          Field[string]     `json:"raw_text,omitzero"`
	OfficialResponse Field[string]     `json:"official_response,omitzero"`
	RetrievedSources []string          `json:"retrieved_sources"`
	RetrievedMeta    []Passage         `json:"retrieved_meta"`
}
