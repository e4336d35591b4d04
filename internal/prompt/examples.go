package prompt

import "encoding/json"

// ExampleOutput is the structured answer shown to the model in a few-shot exemplar.
type ExampleOutput struct {
	Hazards          []string `json:"hazards"`
	PPERequired      []string `json:"ppe_required"`
	PPERecommended   []string `json:"ppe_recommended"`
	ImmediateActions []string `json:"immediate_actions"`
	SaferSubstitutes []string `json:"safer_substitutes"`
	Citations        []string `json:"citations"`
	Confidence       string   `json:"confidence"`
	ExplainShort     string   `json:"explain_short"`
	OfficialResponse string   `json:"official_response"`
}

// Example pairs a user input with the JSON the model should produce for it.
type Example struct {
	Input  string
	Output ExampleOutput
}

func (e Example) outputJSON() string {
	b, err := json.Marshal(e.Output)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DefaultExamples returns the built-in exemplars: one grounded answer and one
// answer for a reagent with no retrieved SDS.
func DefaultExamples() []Example {
	return []Example{
		{
			Input: "I'm diluting concentrated hydrochloric acid for a titration. What should I watch out for?",
			Output: ExampleOutput{
				Hazards:          []string{"corrosive to skin and eyes", "irritating hydrogen chloride fumes", "heat released on dilution"},
				PPERequired:      []string{"splash goggles", "acid-resistant gloves", "lab coat"},
				PPERecommended:   []string{"face shield"},
				ImmediateActions: []string{"flush skin or eyes with water at the eyewash or shower", "move to fresh air if fumes are inhaled", "report the incident to EHS"},
				SaferSubstitutes: []string{"purchase pre-diluted acid where the method allows"},
				Citations:        []string{"hydrochloric_acid.txt"},
				Confidence:       "high",
				ExplainShort:     "Concentrated HCl is corrosive and releases irritating fumes, so work in a fume hood with eye and skin protection.",
				OfficialResponse: "Concentrated hydrochloric acid can cause severe burns and gives off irritating hydrogen chloride fumes. Handle it only in a working fume hood while wearing splash goggles, acid-resistant gloves and a lab coat; a face shield adds protection against splashes.\n\nIf acid contacts skin or eyes, flush with water immediately and tell your supervisor or EHS. Check your institution's procedure and the SDS before you start.",
			},
		},
		{
			Input: "Can I heat this unknown orange powder I found in the cabinet?",
			Output: ExampleOutput{
				Hazards:          []string{"unknown identity and reactivity", "possible toxic or oxidizing solid"},
				PPERequired:      []string{"splash goggles", "nitrile gloves", "lab coat"},
				PPERecommended:   []string{},
				ImmediateActions: []string{"do not heat or open the container", "label it as unknown and contact EHS"},
				SaferSubstitutes: []string{},
				Citations:        []string{},
				Confidence:       "low",
				ExplainShort:     "The substance is unidentified, so it should not be heated or used until EHS identifies it.",
				OfficialResponse: "I could not find an authoritative SDS in the retrieved passages for this reagent; please provide the product SDS or consult EHS. Unknown solids can be toxic, oxidizing or shock-sensitive, and heating them may release dangerous gases or cause a fire.\n\nLeave the container closed, mark it as unknown, and ask your supervisor or EHS to arrange identification or disposal.",
			},
		},
	}
}
