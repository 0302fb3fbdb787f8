package service

import (
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/internal/model"
	"campus_spirit_backend/internal/repository"
	"campus_spirit_backend/internal/util"
	"campus_spirit_backend/pkg/logger"
	"campus_spirit_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 排行榜缓存
	leaderboardCacheKey = "spirit:leaderboard"
	leaderboardCacheTTL = 30 * time.Second

	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100

	// 配置表未覆盖的行为使用固定积分值
	deltaEventRSVP   = 2
	deltaPhotoShared = 3
)

// actionCounters 行为到用户计数器列的映射，仅这三种行为有冗余计数
var actionCounters = map[model.ActionKind]string{
	model.ActionQuestionAsked:     "questions_asked",
	model.ActionEventAttended:     "events_attended",
	model.ActionFeedbackSubmitted: "feedback_submitted",
}

// CreditResult 一次记账后的最新状态
type CreditResult struct {
	SpiritID string `json:"spiritId"`
	Delta    int    `json:"delta"`
	Points   int    `json:"points"`
	Level    string `json:"level"`
}

// UserStats 用户积分面板
type UserStats struct {
	SpiritID           string      `json:"spiritId"`
	Points             int         `json:"points"`
	Level              string      `json:"level"`
	QuestionsAsked     int         `json:"questionsAsked"`
	EventsAttended     int         `json:"eventsAttended"`
	FeedbackSubmitted  int         `json:"feedbackSubmitted"`
	NextReward         *RewardTier `json:"nextReward,omitempty"`
	PointsToNextReward int         `json:"pointsToNextReward"`
	RecentAchievements []string    `json:"recentAchievements"`
}

// LeaderboardEntry 排行榜条目，对外只暴露稳定的匿名别名
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Alias  string `json:"alias"`
	Points int    `json:"points"`
	Level  string `json:"level"`
}

// UserRank 名次与超越百分比
type UserRank struct {
	SpiritID   string  `json:"spiritId"`
	Rank       int     `json:"rank"`
	Total      int     `json:"total"`
	Percentile float64 `json:"percentile"`
}

// RedeemResult 兑换结果
type RedeemResult struct {
	Redeemed bool        `json:"redeemed"`
	Reward   *RewardTier `json:"reward,omitempty"`
	Points   int         `json:"points"`
}

type PointsService struct {
	db           *gorm.DB
	userRepo     *repository.UserRepository
	txRepo       *repository.PointTransactionRepository
	achievements *AchievementService
	rdb          *redis.Client

	// 逐用户串行化记账，避免并发累加丢更新
	userLocks sync.Map

	mu     sync.RWMutex
	points config.PointsConfig
}

func NewPointsService(db *gorm.DB, userRepo *repository.UserRepository, txRepo *repository.PointTransactionRepository, achievements *AchievementService, rdb *redis.Client, points config.PointsConfig) *PointsService {
	return &PointsService{
		db:           db,
		userRepo:     userRepo,
		txRepo:       txRepo,
		achievements: achievements,
		rdb:          rdb,
		points:       points,
	}
}

// SetPointsConfig 配置热更新入口
func (s *PointsService) SetPointsConfig(points config.PointsConfig) {
	s.mu.Lock()
	s.points = points
	s.mu.Unlock()
	s.achievements.SetBonus(points.AchievementBonus)
}

func (s *PointsService) lockUser(spiritID string) *sync.Mutex {
	v, _ := s.userLocks.LoadOrStore(spiritID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// deltaFor 行为对应的积分值，内部行为不可经由 Credit 入账
func (s *PointsService) deltaFor(action model.ActionKind) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch action {
	case model.ActionQuestionAsked:
		return s.points.QuestionAsked, true
	case model.ActionEventAttended:
		return s.points.EventAttended, true
	case model.ActionFeedbackSubmitted:
		return s.points.FeedbackSubmitted, true
	case model.ActionEventRSVP:
		return deltaEventRSVP, true
	case model.ActionPhotoShared:
		return deltaPhotoShared, true
	}
	return 0, false
}

// Credit 为一次用户行为记账：追加流水、累加积分缓存，然后重评成就
// delta 为 0 时取该行为的配置默认值；用户不存在时惰性创建
func (s *PointsService) Credit(spiritID string, delta int, action model.ActionKind, description string) (*CreditResult, error) {
	if !model.ValidSpiritID(spiritID) {
		return nil, util.ErrInvalidSpiritID
	}
	fallback, ok := s.deltaFor(action)
	if !ok {
		return nil, util.ErrInvalidAction
	}
	if delta == 0 {
		delta = fallback
	}

	lock := s.lockUser(spiritID)
	lock.Lock()
	defer lock.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindOrCreate(tx, spiritID)
		if err != nil {
			return err
		}

		t := &model.PointTransaction{
			UserID:      user.ID,
			Delta:       delta,
			Action:      action,
			Description: description,
		}
		if err := s.txRepo.Append(tx, t); err != nil {
			return err
		}
		return s.userRepo.ApplyCredit(tx, user.ID, delta, actionCounters[action])
	})
	if err != nil {
		return nil, fmt.Errorf("credit %s for %s: %w", action, spiritID, err)
	}

	monitoring.PointsCreditedTotal.WithLabelValues(string(action)).Add(float64(delta))
	s.achievements.Evaluate(spiritID, action)
	s.invalidateLeaderboard()

	user, err := s.userRepo.FindBySpiritID(spiritID)
	if err != nil {
		return nil, err
	}
	return &CreditResult{
		SpiritID: spiritID,
		Delta:    delta,
		Points:   user.Points,
		Level:    LevelForPoints(user.Points),
	}, nil
}

// Stats 用户积分面板：等级、计数器、下一档奖励与最近成就
func (s *PointsService) Stats(spiritID string) (*UserStats, error) {
	user, err := s.userRepo.FindBySpiritID(spiritID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	stats := &UserStats{
		SpiritID:           user.SpiritID,
		Points:             user.Points,
		Level:              LevelForPoints(user.Points),
		QuestionsAsked:     user.QuestionsAsked,
		EventsAttended:     user.EventsAttended,
		FeedbackSubmitted:  user.FeedbackSubmitted,
		RecentAchievements: []string{},
	}
	if next := NextTier(user.Points); next != nil {
		stats.NextReward = next
		stats.PointsToNextReward = next.Threshold - user.Points
	}

	recent, err := s.txRepo.FindByUserAndAction(user.ID, model.ActionAchievement, 5)
	if err != nil {
		logger.Log.Warn("recent achievements lookup failed", zap.Error(err))
		return stats, nil
	}
	for _, t := range recent {
		// 描述格式 "achievement:<key> <Name>"，展示部分取空格之后
		if _, name, found := strings.Cut(t.Description, " "); found {
			stats.RecentAchievements = append(stats.RecentAchievements, name)
		}
	}
	return stats, nil
}

// Leaderboard 积分排行榜，Redis 可用时短缓存
func (s *PointsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	cacheKey := fmt.Sprintf("%s:%d", leaderboardCacheKey, limit)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var entries []LeaderboardEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				return entries, nil
			}
		}
	}

	users, err := s.userRepo.FindTopByPoints(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			Alias:  AliasFor(u.SpiritID),
			Points: u.Points,
			Level:  LevelForPoints(u.Points),
		})
	}

	if s.rdb != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, data, leaderboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}
	return entries, nil
}

func (s *PointsService) invalidateLeaderboard() {
	if s.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	iter := s.rdb.Scan(ctx, 0, leaderboardCacheKey+":*", 0).Iterator()
	for iter.Next(ctx) {
		s.rdb.Del(ctx, iter.Val())
	}
}

// AliasFor 从 SpiritID 派生稳定的匿名展示名
func AliasFor(spiritID string) string {
	h := fnv.New32a()
	h.Write([]byte(spiritID))
	return fmt.Sprintf("Ram Fan #%04X", h.Sum32()%0x10000)
}

// Rank 名次按严格大于的积分数定义，并列取同一名次
func (s *PointsService) Rank(spiritID string) (*UserRank, error) {
	user, err := s.userRepo.FindBySpiritID(spiritID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	ahead, err := s.userRepo.CountWithMorePoints(user.Points)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.CountAll()
	if err != nil {
		return nil, err
	}

	rank := int(ahead) + 1
	percentile := float64(int(total)-rank+1) / float64(total) * 100
	percentile = math.Round(percentile*10) / 10

	return &UserRank{
		SpiritID:   spiritID,
		Rank:       rank,
		Total:      int(total),
		Percentile: percentile,
	}, nil
}

// DailyStreak 连续活跃奖励：昨天活跃且今天首次出现时发一次奖励
// 判定基于记账前的 LastActiveAt，同一天只可能发一次
func (s *PointsService) DailyStreak(spiritID string) (int, error) {
	if !model.ValidSpiritID(spiritID) {
		return 0, util.ErrInvalidSpiritID
	}

	lock := s.lockUser(spiritID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.userRepo.FindOrCreate(nil, spiritID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	today := now.Format(util.DateFormat)
	yesterday := now.AddDate(0, 0, -1).Format(util.DateFormat)
	lastActive := user.LastActiveAt.Format(util.DateFormat)

	if lastActive != yesterday {
		return 0, nil
	}

	descKey := "streak:" + today

	// Redis 快速去重，失败时回退到流水判断
	if s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := s.rdb.SetNX(ctx, fmt.Sprintf("spirit:streak:%s:%s", spiritID, today), 1, 48*time.Hour).Result()
		cancel()
		if err == nil && !ok {
			return 0, nil
		}
	}

	exists, err := s.txRepo.ExistsByActionAndDescription(nil, user.ID, model.ActionStreakBonus, descKey)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	s.mu.RLock()
	bonus := s.points.StreakBonus
	s.mu.RUnlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		t := &model.PointTransaction{
			UserID:      user.ID,
			Delta:       bonus,
			Action:      model.ActionStreakBonus,
			Description: descKey,
		}
		if err := s.txRepo.Append(tx, t); err != nil {
			return err
		}
		return s.userRepo.ApplyCredit(tx, user.ID, bonus, "")
	})
	if err != nil {
		return 0, fmt.Errorf("streak bonus for %s: %w", spiritID, err)
	}

	monitoring.PointsCreditedTotal.WithLabelValues(string(model.ActionStreakBonus)).Add(float64(bonus))
	s.achievements.Evaluate(spiritID, model.ActionStreakBonus)
	s.invalidateLeaderboard()
	return bonus, nil
}

// Redeem 兑换某个档位的奖品，零分值流水仅作兑换登记，不扣减积分
func (s *PointsService) Redeem(spiritID string, threshold int) (*RedeemResult, error) {
	tier := TierAt(threshold)
	if tier == nil {
		return nil, fmt.Errorf("no reward at threshold %d", threshold)
	}

	user, err := s.userRepo.FindBySpiritID(spiritID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if user.Points < tier.Threshold {
		return &RedeemResult{Redeemed: false, Points: user.Points}, util.ErrInsufficientPoints
	}

	lock := s.lockUser(spiritID)
	lock.Lock()
	defer lock.Unlock()

	// 键带尾随空格，避免 redeem:10 前缀误中 redeem:100
	descKey := fmt.Sprintf("redeem:%d ", tier.Threshold)
	exists, err := s.txRepo.ExistsByActionAndDescription(nil, user.ID, model.ActionRewardRedeemed, descKey)
	if err != nil {
		return nil, err
	}
	if exists {
		return &RedeemResult{Redeemed: false, Reward: tier, Points: user.Points}, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		t := &model.PointTransaction{
			UserID:      user.ID,
			Delta:       0,
			Action:      model.ActionRewardRedeemed,
			Description: descKey + tier.Label,
		}
		if err := s.txRepo.Append(tx, t); err != nil {
			return err
		}
		// 零分值也要刷新活跃时间
		return s.userRepo.ApplyCredit(tx, user.ID, 0, "")
	})
	if err != nil {
		return nil, fmt.Errorf("redeem %d for %s: %w", threshold, spiritID, err)
	}

	return &RedeemResult{Redeemed: true, Reward: tier, Points: user.Points}, nil
}

// History 最近流水
func (s *PointsService) History(spiritID string, limit int) ([]model.PointTransaction, error) {
	user, err := s.userRepo.FindBySpiritID(spiritID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return s.txRepo.FindByUser(user.ID, limit)
}
