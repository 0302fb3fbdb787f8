package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "llama3.2", cfg.AI.Model)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.Retrieval.MaxResults)
	assert.InDelta(t, 0.3, cfg.Retrieval.MinSimilarity, 1e-9)

	assert.Equal(t, 1, cfg.Points.QuestionAsked)
	assert.Equal(t, 5, cfg.Points.EventAttended)
	assert.Equal(t, 2, cfg.Points.FeedbackSubmitted)
	assert.Equal(t, 3, cfg.Points.StreakBonus)
	assert.Equal(t, 5, cfg.Points.AchievementBonus)

	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9090"
ai:
  model: custom-model
  timeout_seconds: 10
points:
  question_asked: 2
unknown_section:
  something: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "custom-model", cfg.AI.Model)
	assert.Equal(t, 10*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 2, cfg.Points.QuestionAsked)
	// 未覆盖的键保持默认
	assert.Equal(t, 5, cfg.Points.EventAttended)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Retrieval: RetrievalConfig{MaxResults: 3, MinSimilarity: 0.3},
		AI:        AIConfig{Timeout: time.Second},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Retrieval.MaxResults = 0
	assert.Error(t, cfg.Validate())

	cfg.Retrieval.MaxResults = 3
	cfg.Retrieval.MinSimilarity = 1.5
	assert.Error(t, cfg.Validate())

	cfg.Retrieval.MinSimilarity = 0.3
	cfg.AI.Timeout = 0
	assert.Error(t, cfg.Validate())
}
