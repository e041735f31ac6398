package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a temp dir so no stray config.yaml is picked up.
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "resend", cfg.Mailer.Driver)
	assert.Equal(t, "deepseek-ai/DeepSeek-R1-Distill-Llama-70B-free", cfg.Together.PrimaryModel)
	assert.Len(t, cfg.Together.FallbackModels, 3)
	assert.Equal(t, 20, cfg.Quality.LinkedInBioMin)
	assert.Equal(t, 3, cfg.Quality.LinkedInTitleMin)
	assert.Equal(t, 15, cfg.Quality.SocialBioMin)
	assert.Equal(t, time.Minute, cfg.RateLimit.Interval)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
store:
  driver: postgres
  database_url: postgres://localhost/outreach
server:
  port: 9090
quality:
  linkedin_bio_min: 40
mailer:
  driver: smtp
  from: "Vanta <hello@vanta.dev>"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 40, cfg.Quality.LinkedInBioMin)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3, cfg.Quality.LinkedInTitleMin)
	assert.Equal(t, "smtp", cfg.Mailer.Driver)
	assert.Equal(t, "Vanta <hello@vanta.dev>", cfg.Mailer.From)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shout", Format: "json"})
	assert.Error(t, err)
}
