package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labsafety/internal/domain"
)

var aliasHit = []domain.Passage{{Text: "HCl text", Source: "hydrochloric_acid.txt", Score: 0.95, Method: domain.MethodAlias}}

func TestNormalize_FullReply(t *testing.T) {
	raw := `{
		"hazards": ["corrosive"],
		"ppe_required": ["goggles", "gloves"],
		"ppe_recommended": "face shield",
		"immediate_actions": ["flush with water"],
		"safer_substitutes": [],
		"citations": ["hydrochloric_acid.txt", "invented.txt"],
		"confidence": "High",
		"explain_short": "HCl is corrosive.",
		"official_response": "Use a fume hood.",
		"retrieved_sources": ["model-made.txt"],
		"extra": 1
	}`

	a := Normalize(raw, aliasHit)

	assert.Equal(t, domain.Some([]string{"corrosive"}), a.Hazards)
	assert.Equal(t, domain.Some([]string{"face shield"}), a.PPERecommended)
	assert.Equal(t, domain.Some([]string{}), a.SaferSubstitutes)
	assert.Equal(t, domain.Some([]string{"hydrochloric_acid.txt"}), a.Citations)
	assert.Equal(t, domain.Some(domain.ConfidenceHigh), a.Confidence)
	assert.Equal(t, "Use a fume hood.", a.OfficialResponse.Value)
	assert.False(t, a.RawText.Set)
	assert.Equal(t, []string{"hydrochloric_acid.txt"}, a.RetrievedSources)
	assert.Equal(t, aliasHit, a.RetrievedMeta)
}

func TestNormalize_UnparseableReply(t *testing.T) {
	a := Normalize("Sorry, I cannot answer in JSON.", aliasHit)

	assert.Equal(t, domain.Some("Sorry, I cannot answer in JSON."), a.RawText)
	assert.False(t, a.Hazards.Set)
	assert.Equal(t, FallbackSummary, a.OfficialResponse.Value)
	assert.NotEmpty(t, a.OfficialResponse.Value)
	assert.Equal(t, []string{"hydrochloric_acid.txt"}, a.RetrievedSources)
}

func TestNormalize_FencedAndEmbeddedJSON(t *testing.T) {
	fenced := "```json\n{\"explain_short\": \"fenced\"}\n```"
	assert.Equal(t, "fenced", Normalize(fenced, aliasHit).ExplainShort.Value)

	prose := "Here is the answer: {\"explain_short\": \"embedded\"} hope it helps"
	assert.Equal(t, "embedded", Normalize(prose, aliasHit).ExplainShort.Value)

	array := `["not", "an", "object"]`
	assert.True(t, Normalize(array, aliasHit).RawText.Set)
}

func TestNormalize_SynthesizesMissingOfficialResponse(t *testing.T) {
	raw := `{
		"explain_short": "Sodium azide is acutely toxic.",
		"hazards": ["toxic", "forms explosive metal azides"],
		"ppe_required": ["nitrile gloves"],
		"ppe_recommended": ["face shield", "sleeve covers"],
		"immediate_actions": ["call EHS", "isolate the area", "do not flush down drains"],
		"official_response": "   "
	}`
	a := Normalize(raw, aliasHit)
	assert.Equal(t,
		"Sodium azide is acutely toxic. Primary hazards: toxic, forms explosive metal azides. "+
			"Required PPE: nitrile gloves. Recommended: face shield, sleeve covers. "+
			"Immediate actions: call EHS isolate the area.",
		a.OfficialResponse.Value)
}

func TestSynthesize_Defaults(t *testing.T) {
	got := Synthesize(domain.Assessment{Hazards: domain.Some([]string{})})
	assert.Equal(t, "Primary hazards: Potential hazards unknown. Required PPE: standard lab PPE.", got)

	assert.Equal(t, FallbackSummary, Synthesize(domain.Assessment{Citations: domain.Some([]string{"a.txt"})}))
}

func TestFinalize_Confidence(t *testing.T) {
	tfidfOnly := []domain.Passage{{Source: "a.txt", Score: 0.2, Method: domain.MethodTFIDF}}

	tests := []struct {
		name      string
		in        domain.Field[domain.Confidence]
		retrieved []domain.Passage
		want      domain.Field[domain.Confidence]
	}{
		{"no retrieval forces low", domain.Some(domain.ConfidenceHigh), nil, domain.Some(domain.ConfidenceLow)},
		{"no retrieval sets low when absent", domain.Field[domain.Confidence]{}, nil, domain.Some(domain.ConfidenceLow)},
		{"tfidf caps high", domain.Some(domain.ConfidenceHigh), tfidfOnly, domain.Some(domain.ConfidenceMedium)},
		{"tfidf keeps low", domain.Some(domain.ConfidenceLow), tfidfOnly, domain.Some(domain.ConfidenceLow)},
		{"exact tier keeps high", domain.Some(domain.ConfidenceHigh), aliasHit, domain.Some(domain.ConfidenceHigh)},
		{"invalid value dropped", domain.Some(domain.Confidence("certain")), aliasHit, domain.Field[domain.Confidence]{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Finalize(domain.Assessment{Confidence: tt.in}, tt.retrieved)
			assert.Equal(t, tt.want, a.Confidence)
		})
	}
}

func TestFinalize_NoRetrievalDropsAllCitations(t *testing.T) {
	a := Finalize(domain.Assessment{Citations: domain.Some([]string{"a.txt"})}, nil)
	assert.Equal(t, domain.Some([]string{}), a.Citations)
	assert.Empty(t, a.RetrievedSources)
	assert.Empty(t, a.RetrievedMeta)
}

func TestFinalize_Idempotent(t *testing.T) {
	replies := []string{
		`{"hazards": "corrosive", "citations": ["x.txt", "hydrochloric_acid.txt"], "confidence": "high"}`,
		"not json at all",
		`{"official_response": "ok", "confidence": "bogus"}`,
	}
	for _, raw := range replies {
		for _, retrieved := range [][]domain.Passage{nil, aliasHit} {
			once := Normalize(raw, retrieved)
			twice := Finalize(once, retrieved)
			assert.Equal(t, once, twice, raw)
		}
	}
}

func TestAssessment_JSONOmitsUnsetFields(t *testing.T) {
	a := Normalize("plain text", nil)
	b, err := json.Marshal(a)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "hazards")
	assert.Equal(t, "plain text", m["raw_text"])
	assert.Equal(t, "low", m["confidence"])
	assert.Contains(t, m, "official_response")
	assert.Contains(t, m, "retrieved_sources")
}

func TestParse_ListItemsAreStringified(t *testing.T) {
	a, ok := Parse(`{"hazards": ["toxic", 5, {"k": "v"}, null], "explain_short": 3}`)
	require.True(t, ok)
	assert.Equal(t, []string{"toxic", "5", `{"k":"v"}`}, a.Hazards.Value)
	assert.Equal(t, "3", a.ExplainShort.Value)
}

func TestParse_NullIsUnset(t *testing.T) {
	a, ok := Parse(`{"hazards": null, "official_response": null}`)
	require.True(t, ok)
	assert.False(t, a.Hazards.Set)
	assert.False(t, a.OfficialResponse.Set)
}
