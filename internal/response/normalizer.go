package response

import (
	"strings"

	"github.com/rs/zerolog/log"

	"labsafety/internal/domain"
)

// FallbackSummary is used when the reply carries nothing to build a summary from.
const FallbackSummary = "I could not format a paragraph summary. Please consult SDS/EHS for authoritative guidance."

// Normalize turns a raw model reply into a complete Assessment. It never
// fails: an unparseable reply is kept as RawText.
func Normalize(raw string, retrieved []domain.Passage) domain.Assessment {
	a, ok := Parse(raw)
	if !ok {
		log.Debug().Int("bytes", len(raw)).Msg("model reply is not a JSON object")
		a = domain.Assessment{RawText: domain.Some(raw)}
	}
	return Finalize(a, retrieved)
}

// Finalize checks a against this turn's retrieval. Citations are limited to
// retrieved files and OfficialResponse is always filled. Finalize is idempotent.
func Finalize(a domain.Assessment, retrieved []domain.Passage) domain.Assessment {
	sources := make([]string, len(retrieved))
	known := make(map[string]struct{}, len(retrieved))
	allTFIDF := len(retrieved) > 0
	for i, p := range retrieved {
		sources[i] = p.Source
		known[p.Source] = struct{}{}
		if p.Method != domain.MethodTFIDF {
			allTFIDF = false
		}
	}

	if a.Citations.Set {
		kept := make([]string, 0, len(a.Citations.Value))
		for _, c := range a.Citations.Value {
			if _, ok := known[c]; ok {
				kept = append(kept, c)
			}
		}
		a.Citations = domain.Some(kept)
	}

	if a.Confidence.Set && !a.Confidence.Value.Valid() {
		a.Confidence = domain.Field[domain.Confidence]{}
	}
	switch {
	case len(retrieved) == 0:
		a.Confidence = domain.Some(domain.ConfidenceLow)
	case allTFIDF && a.Confidence.Set && a.Confidence.Value == domain.ConfidenceHigh:
		a.Confidence = domain.Some(domain.ConfidenceMedium)
	}

	if !a.OfficialResponse.Set || strings.TrimSpace(a.OfficialResponse.Value) == "" {
		a.OfficialResponse = domain.Some(Synthesize(a))
	}

	a.RetrievedSources = sources
	a.RetrievedMeta = append([]domain.Passage(nil), retrieved...)
	return a
}

// Synthesize builds a one-paragraph summary from the structured fields, or
// returns FallbackSummary when none of them is present.
func Synthesize(a domain.Assessment) string {
	if !a.Hazards.Set && !a.PPERequired.Set && !a.PPERecommended.Set &&
		!a.ImmediateActions.Set && !a.ExplainShort.Set {
		return FallbackSummary
	}

	hazards := strings.Join(a.Hazards.Value, ", ")
	if hazards == "" {
		hazards = "Potential hazards unknown"
	}
	required := strings.Join(a.PPERequired.Value, ", ")
	if required == "" {
		required = "standard lab PPE"
	}

	var sb strings.Builder
	sb.WriteString(a.ExplainShort.Value)
	sb.WriteString(" Primary hazards: " + hazards + ".")
	sb.WriteString(" Required PPE: " + required + ".")
	if rec := strings.Join(a.PPERecommended.Value, ", "); rec != "" {
		sb.WriteString(" Recommended: " + rec + ".")
	}
	if actions := a.ImmediateActions.Value; len(actions) > 0 {
		if len(actions) > 2 {
			actions = actions[:2]
		}
		sb.WriteString(" Immediate actions: " + strings.Join(actions, " ") + ".")
	}
	return strings.TrimSpace(sb.String())
}
