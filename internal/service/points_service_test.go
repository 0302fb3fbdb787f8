package service

import (
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/internal/model"
	"campus_spirit_backend/internal/repository"
	"campus_spirit_backend/internal/util"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testPointsConfig() config.PointsConfig {
	return config.PointsConfig{
		QuestionAsked:     1,
		EventAttended:     5,
		FeedbackSubmitted: 2,
		StreakBonus:       3,
		AchievementBonus:  5,
	}
}

type pointsFixture struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	txRepo   *repository.PointTransactionRepository
	points   *PointsService
}

func newPointsFixture(t *testing.T) *pointsFixture {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewPointTransactionRepository(db)
	achievements := NewAchievementService(db, userRepo, txRepo, testPointsConfig().AchievementBonus)
	points := NewPointsService(db, userRepo, txRepo, achievements, nil, testPointsConfig())
	return &pointsFixture{db: db, userRepo: userRepo, txRepo: txRepo, points: points}
}

// 积分缓存必须始终等于流水合计
func (f *pointsFixture) assertLedgerConsistent(t *testing.T, spiritID string) {
	t.Helper()
	user, err := f.userRepo.FindBySpiritID(spiritID)
	require.NoError(t, err)
	sum, err := f.txRepo.SumByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, user.Points, "cached points must equal transaction sum")
}

func TestCreditCreatesUserLazily(t *testing.T) {
	f := newPointsFixture(t)

	result, err := f.points.Credit("alice", 0, model.ActionQuestionAsked, "first question")
	require.NoError(t, err)

	// 提问 1 分 + First Question 成就 5 分
	assert.Equal(t, 1, result.Delta)
	assert.Equal(t, 6, result.Points)

	user, err := f.userRepo.FindBySpiritID("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, user.QuestionsAsked)
	f.assertLedgerConsistent(t, "alice")
}

func TestCreditRejectsInvalidInput(t *testing.T) {
	f := newPointsFixture(t)

	_, err := f.points.Credit("", 0, model.ActionQuestionAsked, "")
	assert.ErrorIs(t, err, util.ErrInvalidSpiritID)

	_, err = f.points.Credit("x", 0, model.ActionQuestionAsked, "")
	assert.ErrorIs(t, err, util.ErrInvalidSpiritID)

	_, err = f.points.Credit("alice", 0, "window_smashed", "")
	assert.ErrorIs(t, err, util.ErrInvalidAction)

	// 内部行为不可从外部入账
	_, err = f.points.Credit("alice", 0, model.ActionMilestone, "")
	assert.ErrorIs(t, err, util.ErrInvalidAction)
}

func TestConcurrentCreditsLoseNoUpdates(t *testing.T) {
	f := newPointsFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.points.Credit("bob", 0, model.ActionEventAttended, "tailgate")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := f.userRepo.FindBySpiritID("bob")
	require.NoError(t, err)
	assert.Equal(t, 10, user.EventsAttended)
	f.assertLedgerConsistent(t, "bob")
}

func TestMilestoneAwardedExactlyOnce(t *testing.T) {
	f := newPointsFixture(t)

	// 两次活动积分跨过 10 分档位
	for i := 0; i < 3; i++ {
		_, err := f.points.Credit("carol", 0, model.ActionEventAttended, "")
		require.NoError(t, err)
	}

	user, err := f.userRepo.FindBySpiritID("carol")
	require.NoError(t, err)

	milestones, err := f.txRepo.FindByUserAndAction(user.ID, model.ActionMilestone, 0)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, m := range milestones {
		seen[m.Description]++
	}
	for desc, n := range seen {
		assert.Equal(t, 1, n, "milestone %q awarded more than once", desc)
	}
	f.assertLedgerConsistent(t, "carol")
}

func TestExplicitDeltaCrossesMilestone(t *testing.T) {
	f := newPointsFixture(t)

	_, err := f.points.Credit("zoe", 9, model.ActionEventAttended, "volunteer shift")
	require.NoError(t, err)
	_, err = f.points.Credit("zoe", 1, model.ActionQuestionAsked, "")
	require.NoError(t, err)

	user, err := f.userRepo.FindBySpiritID("zoe")
	require.NoError(t, err)

	// 两笔显式分值合计 10，触发 10 分里程碑，奖励为阈值的十分之一
	exists, err := f.txRepo.ExistsByActionAndDescription(nil, user.ID, model.ActionMilestone, "milestone:10")
	require.NoError(t, err)
	assert.True(t, exists)

	milestones, err := f.txRepo.FindByUserAndAction(user.ID, model.ActionMilestone, 0)
	require.NoError(t, err)
	for _, m := range milestones {
		if m.Description == "milestone:10 Ram Sticker Pack" {
			assert.Equal(t, 1, m.Delta)
		}
	}
	f.assertLedgerConsistent(t, "zoe")
}

func TestStats(t *testing.T) {
	f := newPointsFixture(t)

	_, err := f.points.Credit("dave", 0, model.ActionQuestionAsked, "")
	require.NoError(t, err)

	stats, err := f.points.Stats("dave")
	require.NoError(t, err)

	assert.Equal(t, "dave", stats.SpiritID)
	assert.Equal(t, 1, stats.QuestionsAsked)
	assert.Contains(t, stats.RecentAchievements, "First Question")
	require.NotNil(t, stats.NextReward)
	assert.Equal(t, stats.NextReward.Threshold-stats.Points, stats.PointsToNextReward)

	_, err = f.points.Stats("nobody")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestLeaderboardOrderingAndAliases(t *testing.T) {
	f := newPointsFixture(t)

	_, err := f.points.Credit("low", 0, model.ActionQuestionAsked, "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := f.points.Credit("high", 0, model.ActionEventAttended, "")
		require.NoError(t, err)
	}

	entries, err := f.points.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Greater(t, entries[0].Points, entries[1].Points)
	assert.Equal(t, AliasFor("high"), entries[0].Alias)
	assert.NotContains(t, entries[0].Alias, "high", "leaderboard must not expose raw ids")
}

func TestAliasForIsStable(t *testing.T) {
	assert.Equal(t, AliasFor("alice"), AliasFor("alice"))
	assert.NotEqual(t, AliasFor("alice"), AliasFor("bob"))
}

func TestRankAndPercentile(t *testing.T) {
	f := newPointsFixture(t)

	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		_, err := f.points.Credit(id, 0, model.ActionQuestionAsked, "")
		require.NoError(t, err)
	}
	_, err := f.points.Credit("u1", 0, model.ActionEventAttended, "")
	require.NoError(t, err)

	rank, err := f.points.Rank("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rank.Rank)
	assert.Equal(t, 4, rank.Total)
	assert.InDelta(t, 100.0, rank.Percentile, 0.01)

	rank, err = f.points.Rank("u2")
	require.NoError(t, err)
	assert.Equal(t, 2, rank.Rank)

	_, err = f.points.Rank("ghost")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestDailyStreak(t *testing.T) {
	f := newPointsFixture(t)

	// 新用户当天首次出现，没有连续活跃
	bonus, err := f.points.DailyStreak("erin")
	require.NoError(t, err)
	assert.Equal(t, 0, bonus)

	// 回拨活跃时间到昨天
	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, f.db.Model(&model.User{}).
		Where("spirit_id = ?", "erin").
		Update("last_active_at", yesterday).Error)

	bonus, err = f.points.DailyStreak("erin")
	require.NoError(t, err)
	assert.Equal(t, 3, bonus)

	// 奖励发放后活跃时间变为今天，再次调用不重复发放
	bonus, err = f.points.DailyStreak("erin")
	require.NoError(t, err)
	assert.Equal(t, 0, bonus)

	// 即便活跃时间再次被回拨，流水幂等仍防住同日二次发放
	require.NoError(t, f.db.Model(&model.User{}).
		Where("spirit_id = ?", "erin").
		Update("last_active_at", yesterday).Error)
	bonus, err = f.points.DailyStreak("erin")
	require.NoError(t, err)
	assert.Equal(t, 0, bonus)

	f.assertLedgerConsistent(t, "erin")
}

func TestRedeem(t *testing.T) {
	f := newPointsFixture(t)

	// 攒到 10 分以上
	for i := 0; i < 3; i++ {
		_, err := f.points.Credit("fred", 0, model.ActionEventAttended, "")
		require.NoError(t, err)
	}
	before, err := f.userRepo.FindBySpiritID("fred")
	require.NoError(t, err)

	result, err := f.points.Redeem("fred", 10)
	require.NoError(t, err)
	assert.True(t, result.Redeemed)
	require.NotNil(t, result.Reward)
	assert.Equal(t, "Ram Sticker Pack", result.Reward.Label)

	// 兑换是登记不是扣减
	after, err := f.userRepo.FindBySpiritID("fred")
	require.NoError(t, err)
	assert.Equal(t, before.Points, after.Points)

	// 同档位不可重复兑换
	result, err = f.points.Redeem("fred", 10)
	require.NoError(t, err)
	assert.False(t, result.Redeemed)

	// 积分不足
	_, err = f.points.Redeem("fred", 1000)
	assert.ErrorIs(t, err, util.ErrInsufficientPoints)

	// 不存在的档位
	_, err = f.points.Redeem("fred", 11)
	assert.Error(t, err)

	f.assertLedgerConsistent(t, "fred")
}

func TestHistory(t *testing.T) {
	f := newPointsFixture(t)

	_, err := f.points.Credit("gina", 0, model.ActionFeedbackSubmitted, "loved the tailgate")
	require.NoError(t, err)

	txs, err := f.points.History("gina", 10)
	require.NoError(t, err)
	require.NotEmpty(t, txs)

	var found bool
	for _, tx := range txs {
		if tx.Action == model.ActionFeedbackSubmitted {
			assert.Equal(t, 2, tx.Delta)
			assert.Equal(t, "loved the tailgate", tx.Description)
			found = true
		}
	}
	assert.True(t, found)
}
