package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prism/internal/config"
	"github.com/zjrosen/prism/internal/reference"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setTestConfig points the package config at a temp workspace and restores it
// after the test.
func setTestConfig(t *testing.T, c config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestLoadDocuments_MissingOptionalFilesTolerated(t *testing.T) {
	dir := t.TempDir()
	tokensPath := filepath.Join(dir, "tokens.json")
	writeFile(t, tokensPath, `{"size": {"md": {"type": "size", "value": 16}}}`)

	c := config.Defaults()
	c.Documents.TokensPath = tokensPath
	c.Documents.BrandPath = filepath.Join(dir, "missing-brand.json")
	setTestConfig(t, c)

	index, err := loadDocuments()
	require.NoError(t, err, "missing files fall back to empty documents")

	leaf, ok := index.Lookup(reference.CollectionTokens, []string{"size", "md"})
	require.True(t, ok)
	require.Equal(t, float64(16), leaf.Raw)
}

func TestLoadDocuments_CorruptFileErrors(t *testing.T) {
	dir := t.TempDir()
	tokensPath := filepath.Join(dir, "tokens.json")
	writeFile(t, tokensPath, `{not json`)

	c := config.Defaults()
	c.Documents.TokensPath = tokensPath
	c.Documents.BrandPath = ""
	setTestConfig(t, c)

	_, err := loadDocuments()
	require.Error(t, err)
}

func TestStrictCheck(t *testing.T) {
	dir := t.TempDir()
	tokensPath := filepath.Join(dir, "tokens.json")
	brandPath := filepath.Join(dir, "brand.json")
	writeFile(t, tokensPath, `{"size": {"md": {"type": "size", "value": 16}}}`)
	writeFile(t, brandPath, `{
		"themes": {"light": {"layers": {"layer-1": {"properties": {
			"padding": {"type": "size", "value": "{tokens.size.md"}
		}}}}}
	}`)

	c := config.Defaults()
	c.Documents.TokensPath = tokensPath
	c.Documents.BrandPath = brandPath
	setTestConfig(t, c)

	index, err := loadDocuments()
	require.NoError(t, err)

	err = strictCheck(index)
	require.Error(t, err, "unbalanced braces are an error in strict mode")
	require.Contains(t, err.Error(), "unbalanced braces")
}

func TestStrictCheck_CleanDocumentsPass(t *testing.T) {
	dir := t.TempDir()
	tokensPath := filepath.Join(dir, "tokens.json")
	brandPath := filepath.Join(dir, "brand.json")
	writeFile(t, tokensPath, `{"size": {"md": {"type": "size", "value": 16}}}`)
	writeFile(t, brandPath, `{
		"themes": {"light": {"layers": {"layer-1": {"properties": {
			"padding": {"type": "size", "value": "{tokens.size.md}"},
			"label": {"type": "string", "value": "plain literal"}
		}}}}}
	}`)

	c := config.Defaults()
	c.Documents.TokensPath = tokensPath
	c.Documents.BrandPath = brandPath
	setTestConfig(t, c)

	index, err := loadDocuments()
	require.NoError(t, err)
	require.NoError(t, strictCheck(index))
}

func TestNewEngine_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	tokensPath := filepath.Join(dir, "tokens.json")
	brandPath := filepath.Join(dir, "brand.json")
	writeFile(t, tokensPath, `{"size": {"md": {"type": "size", "value": 16}}}`)
	writeFile(t, brandPath, `{
		"themes": {"light": {"layers": {"layer-1": {"properties": {
			"padding": {"type": "size", "value": "{tokens.size.md}"}
		}}}}}
	}`)

	c := config.Defaults()
	c.Documents.TokensPath = tokensPath
	c.Documents.BrandPath = brandPath
	c.OverridesPath = filepath.Join(dir, "overrides.json")
	setTestConfig(t, c)

	eng, cleanup, err := newEngine()
	require.NoError(t, err)
	defer cleanup()

	value, err := eng.Resolve(reference.CollectionBrand,
		[]string{"themes", "light", "layers", "layer-1", "properties", "padding"})
	require.NoError(t, err)
	require.Equal(t, "16", value)

	snap := eng.Snapshot()
	require.Equal(t, "16", snap["--prism-tokens-size-md"])
}

func TestNewEngine_InvalidTracingConfig(t *testing.T) {
	c := config.Defaults()
	c.Tracing.SampleRate = 2.0
	setTestConfig(t, c)

	_, _, err := newEngine()
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")
}
