package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.InDelta(t, 45.0, cfg.Analysis.RelevanceThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Analysis.MinExtentSize)
	assert.Equal(t, 5*time.Minute, cfg.Lattice.Timeout.Std())
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 1, cfg.AI.Retries)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
analysis:
  relevance_threshold: 60.0
lattice:
  tool_path: tools/fca.jar
  timeout: 30s
ai:
  provider: openai
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, cfg.Analysis.RelevanceThreshold, 1e-9)
	assert.Equal(t, "tools/fca.jar", cfg.Lattice.ToolPath)
	assert.Equal(t, 30*time.Second, cfg.Lattice.Timeout.Std())
	assert.Equal(t, "openai", cfg.AI.Provider)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.Analysis.MinExtentSize)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ABSTRACTOR_API_KEY", "secret")
	t.Setenv("ABSTRACTOR_AI_PROVIDER", "none")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.Equal(t, "none", cfg.AI.Provider)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
