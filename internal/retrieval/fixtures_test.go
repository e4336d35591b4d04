package retrieval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"labsafety/internal/domain"
	"labsafety/internal/loader"
)

const (
	acetoneSDS = `Acetone
Highly flammable liquid and vapour. Causes serious eye irritation. May cause drowsiness or dizziness.
Keep away from heat, sparks and open flames. Ground and bond containers during transfer.`

	hydrochloricSDS = `Hydrochloric acid - NIOSH Pocket Guide
CAS No. 7647-01-0
Formula: HCl
Synonyms/Trade Names: Anhydrous hydrogen chloride; Aqueous hydrogen chloride (i.e., Hydrochloric acid, Muriatic acid)
Corrosive to skin and eyes. Causes severe burns. Releases irritating hydrogen chloride fumes.
Wear splash goggles, acid-resistant gloves and a lab coat. Use in a fume hood.`

	sodiumAzideSDS = `Sodium azide
CAS No. 26628-22-8
Formula: NaN3
Acutely toxic if swallowed or absorbed through skin. Contact with acids liberates very toxic hydrazoic acid gas.
Forms shock-sensitive explosive azides with lead and copper plumbing.`
)

func fixtureDocs() []domain.Document {
	return []domain.Document{
		loader.ExtractMetadata("acetone.txt", acetoneSDS),
		loader.ExtractMetadata("hydrochloric_acid.txt", hydrochloricSDS),
		loader.ExtractMetadata("sodium_azide.txt", sodiumAzideSDS),
	}
}

func newFixtureEngine(t *testing.T, storeType string) *Engine {
	t.Helper()
	e, err := NewEngine(fixtureDocs(), Options{StoreType: storeType})
	require.NoError(t, err)
	return e
}

func sources(ps []domain.Passage) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Source
	}
	return out
}
