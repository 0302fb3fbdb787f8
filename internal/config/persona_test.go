package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildPersonaPromptIsStable(t *testing.T) {
	first := BuildPersonaPrompt()
	second := BuildPersonaPrompt()
	assert.Equal(t, first, second, "prompt must be reproducible")
}

func TestBuildPersonaPromptContent(t *testing.T) {
	prompt := BuildPersonaPrompt()

	assert.Contains(t, prompt, "SpiritBot")
	assert.Contains(t, prompt, "Riverton State University")
	assert.Contains(t, prompt, "crimson and gold")

	// 术语表按固定顺序完整出现
	for _, name := range glossaryOrder {
		assert.Contains(t, prompt, name)
		assert.Contains(t, prompt, campusGlossary[name])
	}

	for _, ex := range personaExemplars {
		assert.Contains(t, prompt, ex.Q)
		assert.Contains(t, prompt, ex.A)
	}
}

func TestSamplingCopiesConfig(t *testing.T) {
	cfg := AIConfig{
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        50,
		NumPredict:  256,
		Timeout:     30 * time.Second,
	}

	s := cfg.Sampling()
	assert.Equal(t, 0.7, s.Temperature)
	assert.Equal(t, 0.95, s.TopP)
	assert.Equal(t, 50, s.TopK)
	assert.Equal(t, 256, s.NumPredict)
}
