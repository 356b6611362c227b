package glossary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTrimsAndDropsEmpty(t *testing.T) {
	terms := []Term{
		{Term: "  Kubernetes ", Description: " container orchestration "},
		{Term: "   "},
		{Term: "PostgreSQL"},
	}

	got := Normalize(terms)
	require.Equal(t, []Term{
		{Term: "Kubernetes", Description: "container orchestration"},
		{Term: "PostgreSQL", Description: ""},
	}, got)
}

func TestBlockFormatsOnePerLine(t *testing.T) {
	terms := []Term{
		{Term: "Kubernetes", Description: "container orchestration"},
		{Term: "PostgreSQL"},
	}
	require.Equal(t, "- Kubernetes: container orchestration\n- PostgreSQL", Block(terms))
	require.Equal(t, "", Block(nil))
}

func TestLoadMissingFileIsEmptyGlossary(t *testing.T) {
	terms, err := Load(filepath.Join(t.TempDir(), "glossary.json"))
	require.NoError(t, err)
	require.Empty(t, terms)
}

func TestLoadRejectsMalformedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "glossary.json")
	terms := []Term{
		{Term: " Riva ", Description: "NVIDIA speech server"},
		{Term: ""},
		{Term: "wl-copy", Description: ""},
	}

	require.NoError(t, Save(path, terms))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []Term{
		{Term: "Riva", Description: "NVIDIA speech server"},
		{Term: "wl-copy", Description: ""},
	}, got)

	// Saving the loaded list back reproduces the same ordered content.
	require.NoError(t, Save(path, got))
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestSaveEmptyGlossaryWritesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	require.NoError(t, Save(path, nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(content))
}
