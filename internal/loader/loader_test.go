package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hclText = `Hydrochloric acid - NIOSH Pocket Guide
CAS No. 7647-01-0
Formula: HCl
Synonyms/Trade Names: Anhydrous hydrogen chloride; Aqueous hydrogen chloride (i.e., Hydrochloric acid, Muriatic acid)
Exposure limits: C 5 ppm
`

const acetoneText = `Acetone: flammable solvent
Highly flammable liquid and vapour. Causes serious eye irritation.
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDirectory_TwoFileFixture(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hydrochloric_acid.txt", hclText)
	writeFile(t, dir, "acetone.txt", acetoneText)

	docs, err := LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// sorted by filename
	assert.Equal(t, "acetone.txt", docs[0].Filename)
	assert.Equal(t, "hydrochloric_acid.txt", docs[1].Filename)

	acetone := docs[0]
	assert.Contains(t, acetone.Aliases, "acetone")
	assert.Empty(t, acetone.CAS)
	assert.Empty(t, acetone.Formula)

	hcl := docs[1]
	assert.Equal(t, "hydrochloric acid", hcl.DisplayName)
	assert.Equal(t, "Hydrochloric acid - NIOSH Pocket Guide", hcl.Header)
	assert.Equal(t, "7647-01-0", hcl.CAS)
	assert.Equal(t, "HCl", hcl.Formula)
	assert.Contains(t, hcl.Aliases, "hydrochloric acid")
	assert.Contains(t, hcl.Aliases, "7647-01-0")
	assert.Contains(t, hcl.Aliases, "hcl")
	assert.Contains(t, hcl.Aliases, "muriatic acid")
	assert.IsIncreasing(t, hcl.Aliases)
}

func TestLoadDirectory_SkipsEmptyAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blank.txt", "   \n\t\n")
	writeFile(t, dir, "notes.csv", "a,b,c")
	writeFile(t, dir, "acetone.txt", acetoneText)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	docs, err := LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "acetone.txt", docs[0].Filename)
	assert.Equal(t, "Acetone: flammable solvent\nHighly flammable liquid and vapour. Causes serious eye irritation.", docs[0].Text)
}

func TestLoadDirectory_MissingDir(t *testing.T) {
	_, err := LoadDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadDirectory_Markdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sodium_azide.md", "# Sodium azide\n\nCAS 26628-22-8\n\n* Formula: NaN3\n* Very toxic\n")

	docs, err := LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Sodium azide", docs[0].Header)
	assert.Equal(t, "26628-22-8", docs[0].CAS)
	assert.Equal(t, "NaN3", docs[0].Formula)
	assert.NotContains(t, docs[0].Text, "#")
}

func TestLoadDirectory_ReaderErrorFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "not a pdf")

	_, err := LoadDirectory(context.Background(), dir)
	assert.Error(t, err)
}
