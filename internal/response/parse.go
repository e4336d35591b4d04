package response

import (
	"bytes"
	"encoding/json"
	"strings"

	"labsafety/internal/domain"
)

// Parse decodes a model reply into an Assessment. It accepts a bare JSON
// object, one wrapped in a Markdown code fence, or one embedded in prose.
// List fields accept either an array or a single string. ok is false when no
// JSON object could be decoded.
func Parse(raw string) (a domain.Assessment, ok bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return domain.Assessment{}, false
	}
	a.Hazards = listField(obj, "hazards")
	a.PPERequired = listField(obj, "ppe_required")
	a.PPERecommended = listField(obj, "ppe_recommended")
	a.ImmediateActions = listField(obj, "immediate_actions")
	a.SaferSubstitutes = listField(obj, "safer_substitutes")
	a.Citations = listField(obj, "citations")
	a.ExplainShort = stringField(obj, "explain_short")
	a.OfficialResponse = stringField(obj, "official_response")
	if c := stringField(obj, "confidence"); c.Set {
		a.Confidence = domain.Some(domain.Confidence(strings.ToLower(strings.TrimSpace(c.Value))))
	}
	return a, true
}

func decodeObject(raw string) (map[string]json.RawMessage, bool) {
	candidates := []string{strings.TrimSpace(raw), stripFence(raw)}
	if i, j := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); i >= 0 && j > i {
		candidates = append(candidates, raw[i:j+1])
	}
	for _, c := range candidates {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(c), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// text renders a JSON value as a string: strings unquoted, anything else compacted.
func text(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(bytes.TrimSpace(v))
	}
	return buf.String()
}

func stringField(obj map[string]json.RawMessage, key string) domain.Field[string] {
	v, ok := obj[key]
	if !ok || isNull(v) {
		return domain.Field[string]{}
	}
	return domain.Some(text(v))
}

func listField(obj map[string]json.RawMessage, key string) domain.Field[[]string] {
	v, ok := obj[key]
	if !ok || isNull(v) {
		return domain.Field[[]string]{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return domain.Some([]string{text(v)})
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if isNull(it) {
			continue
		}
		out = append(out, text(it))
	}
	return domain.Some(out)
}
