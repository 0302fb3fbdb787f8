package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSpiritID(t *testing.T) {
	valid := []string{"ab", "alice", "Ram_Fan-42", "A1b2C3"}
	for _, id := range valid {
		assert.True(t, ValidSpiritID(id), "%q should be valid", id)
	}

	invalid := []string{"", "a", "has space", "emoji🐏", "way-too-long-identifier-over-32-chars", "dots.not.ok"}
	for _, id := range invalid {
		assert.False(t, ValidSpiritID(id), "%q should be invalid", id)
	}
}

func TestValidAction(t *testing.T) {
	assert.True(t, ValidAction(ActionQuestionAsked))
	assert.True(t, ValidAction(ActionRewardRedeemed))
	assert.False(t, ValidAction("window_smashed"))
	assert.False(t, ValidAction(""))
}

func TestKnowledgeChunkVectorRoundtrip(t *testing.T) {
	encoded, err := EncodeVector([]float64{0.25, -0.5, 1})
	require.NoError(t, err)

	chunk := KnowledgeChunk{Embedding: encoded}
	vector, err := chunk.Vector()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -0.5, 1}, vector)
}

func TestKnowledgeChunkVectorEdgeCases(t *testing.T) {
	empty := KnowledgeChunk{}
	vector, err := empty.Vector()
	require.NoError(t, err)
	assert.Nil(t, vector)

	corrupt := KnowledgeChunk{Embedding: "{not json"}
	_, err = corrupt.Vector()
	assert.Error(t, err)
}
