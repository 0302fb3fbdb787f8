package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForPoints(t *testing.T) {
	assert.Equal(t, "New Fan", LevelForPoints(0))
	assert.Equal(t, "New Fan", LevelForPoints(9))
	assert.Equal(t, "Rookie Fan", LevelForPoints(10))
	assert.Equal(t, "Ram Regular", LevelForPoints(99))
	assert.Equal(t, "Crimson Loyal", LevelForPoints(100))
	assert.Equal(t, "Riverton Legend", LevelForPoints(1000))
	assert.Equal(t, "Riverton Legend", LevelForPoints(5000))
}

func TestNextTier(t *testing.T) {
	next := NextTier(0)
	require.NotNil(t, next)
	assert.Equal(t, 10, next.Threshold)

	next = NextTier(100)
	require.NotNil(t, next)
	assert.Equal(t, 150, next.Threshold)

	assert.Nil(t, NextTier(1000))
}

func TestTierAt(t *testing.T) {
	tier := TierAt(50)
	require.NotNil(t, tier)
	assert.Equal(t, "Crimson Koozie", tier.Label)

	assert.Nil(t, TierAt(51))
}

func TestRewardTiersAscending(t *testing.T) {
	tiers := RewardTiers()
	require.NotEmpty(t, tiers)
	for i := 1; i < len(tiers); i++ {
		assert.Greater(t, tiers[i].Threshold, tiers[i-1].Threshold)
	}
}
