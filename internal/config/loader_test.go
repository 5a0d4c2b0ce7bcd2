package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadFrom_DefaultsAndExpansion(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
gateway:
  endpoint: ${TEST_GATEWAY_URL:https://fallback.example}
  api_key: ${TEST_GATEWAY_KEY:}
store:
  driver: memory
`)
	t.Setenv("APP_ENV", "unit")
	t.Setenv("TEST_GATEWAY_URL", "https://worker.example")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://worker.example", cfg.Gateway.Endpoint)
	assert.Empty(t, cfg.Gateway.APIKey)
	assert.False(t, cfg.Gateway.IsConfigured())
	assert.Equal(t, "gemini-2.0-flash", cfg.Gateway.TextModel)
	assert.Equal(t, "gemini-2.5-flash-preview-09-2025", cfg.Gateway.VisionModel)
	assert.Equal(t, 60*time.Second, cfg.Gateway.TextTimeout)
	assert.Equal(t, 90*time.Second, cfg.Gateway.VisionTimeout)
	assert.Equal(t, 20*time.Second, cfg.Gateway.ProbeTimeout)
	assert.Equal(t, 4000, cfg.Prompt.MaxBodyRunes)
	assert.Equal(t, []string{"rank_math", "yoast"}, cfg.Store.SEOSchemas)
	assert.Equal(t, "prompts", cfg.Store.SpecialItemType)
	assert.Equal(t, "prompts-text", cfg.Store.AnalysisOverrideField)
	assert.Equal(t, "latin-name-prompt", cfg.Store.AlternateIdentifierField)
}

func TestLoadFrom_EnvFileOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
store:
  driver: postgres
gateway:
  text_model: gemini-2.0-flash
`)
	writeConfig(t, dir, "config.staging.yaml", `
store:
  driver: memory
gateway:
  text_model: gemini-2.5-pro
`)
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gateway.TextModel)
}

func TestLoadFrom_EnvironmentVariableWins(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
gateway:
  api_key: from-file
store:
  driver: memory
`)
	t.Setenv("APP_ENV", "unit")
	t.Setenv("GATEWAY_API_KEY", "from-env")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gateway.APIKey)
}

func TestLoadFrom_RejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
store:
  driver: memory
  seo_schemas: [rank_math, aioseo]
`)
	t.Setenv("APP_ENV", "unit")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aioseo")
}

func TestLoadFrom_MissingBaseFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("EXPAND_SET", "value")

	assert.Equal(t, "a=value", expandEnv("a=${EXPAND_SET}"))
	assert.Equal(t, "b=def", expandEnv("b=${EXPAND_UNSET_X:def}"))
	assert.Equal(t, "c=", expandEnv("c=${EXPAND_UNSET_X:}"))
	assert.Equal(t, "d=${EXPAND_UNSET_X}", expandEnv("d=${EXPAND_UNSET_X}"))
}
