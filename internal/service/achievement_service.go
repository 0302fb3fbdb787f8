package service

import (
	"campus_spirit_backend/internal/model"
	"campus_spirit_backend/internal/repository"
	"campus_spirit_backend/pkg/logger"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// achievementDef 成就注册表条目，谓词作用于（积分缓存, 刚记账的行为）
type achievementDef struct {
	Key       string
	Name      string
	Predicate func(u *model.User, action model.ActionKind) bool
}

// achievementRegistry 封闭的成就注册表，键用于流水描述编码与幂等判断
var achievementRegistry = []achievementDef{
	{"first_question", "First Question", func(u *model.User, _ model.ActionKind) bool {
		return u.QuestionsAsked >= 1
	}},
	{"curious_mind", "Curious Mind", func(u *model.User, _ model.ActionKind) bool {
		return u.QuestionsAsked >= 10
	}},
	{"campus_oracle", "Campus Oracle", func(u *model.User, _ model.ActionKind) bool {
		return u.QuestionsAsked >= 50
	}},
	{"game_day_debut", "Game Day Debut", func(u *model.User, _ model.ActionKind) bool {
		return u.EventsAttended >= 1
	}},
	{"social_butterfly", "Social Butterfly", func(u *model.User, _ model.ActionKind) bool {
		return u.EventsAttended >= 10
	}},
	{"stampede_regular", "Stampede Regular", func(u *model.User, _ model.ActionKind) bool {
		return u.EventsAttended >= 25
	}},
	{"voice_heard", "Voice Heard", func(u *model.User, _ model.ActionKind) bool {
		return u.FeedbackSubmitted >= 1
	}},
	{"streak_keeper", "Streak Keeper", func(_ *model.User, action model.ActionKind) bool {
		return action == model.ActionStreakBonus
	}},
	{"rising_star", "Rising Star", func(u *model.User, _ model.ActionKind) bool {
		return u.Points >= 100
	}},
	{"riverton_legend", "Riverton Legend", func(u *model.User, _ model.ActionKind) bool {
		return u.Points >= 1000
	}},
}

// maxEvaluationRounds 奖励发放本身会涨积分，循环评估直到收敛的轮数上限
const maxEvaluationRounds = 8

type AchievementService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	txRepo   *repository.PointTransactionRepository

	mu    sync.RWMutex
	bonus int
}

func NewAchievementService(db *gorm.DB, userRepo *repository.UserRepository, txRepo *repository.PointTransactionRepository, bonus int) *AchievementService {
	return &AchievementService{
		db:       db,
		userRepo: userRepo,
		txRepo:   txRepo,
		bonus:    bonus,
	}
}

// SetBonus 配置热更新入口
func (s *AchievementService) SetBonus(bonus int) {
	s.mu.Lock()
	s.bonus = bonus
	s.mu.Unlock()
}

func (s *AchievementService) achievementBonus() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bonus
}

// Evaluate 在一次记账提交后重评里程碑与成就
// 评估失败只记日志不回滚记账，下次记账会重试
func (s *AchievementService) Evaluate(spiritID string, action model.ActionKind) {
	for round := 0; round < maxEvaluationRounds; round++ {
		user, err := s.userRepo.FindBySpiritID(spiritID)
		if err != nil {
			logger.Log.Warn("achievement evaluation skipped", zap.String("user", spiritID), zap.Error(err))
			return
		}

		awarded := s.evaluateMilestones(user)
		if s.evaluateAchievements(user, action) {
			awarded = true
		}
		if !awarded {
			return
		}
	}
	logger.Log.Warn("achievement evaluation did not converge", zap.String("user", spiritID))
}

// evaluateMilestones 每跨过一个奖励档位补发一次性奖励，奖励值为阈值的十分之一
func (s *AchievementService) evaluateMilestones(user *model.User) bool {
	awarded := false
	for _, tier := range rewardTiers {
		if user.Points < tier.Threshold {
			break
		}

		// 键带尾随空格，避免 milestone:10 前缀误中 milestone:100
		descKey := fmt.Sprintf("milestone:%d ", tier.Threshold)
		exists, err := s.txRepo.ExistsByActionAndDescription(nil, user.ID, model.ActionMilestone, descKey)
		if err != nil {
			logger.Log.Error("milestone lookup failed", zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		bonus := tier.Threshold / 10
		description := descKey + tier.Label
		if err := s.award(user.ID, bonus, model.ActionMilestone, description); err != nil {
			logger.Log.Error("milestone award failed",
				zap.String("user", user.SpiritID),
				zap.Int("threshold", tier.Threshold),
				zap.Error(err))
			continue
		}
		awarded = true
	}
	return awarded
}

func (s *AchievementService) evaluateAchievements(user *model.User, action model.ActionKind) bool {
	awarded := false
	for _, def := range achievementRegistry {
		if !def.Predicate(user, action) {
			continue
		}

		descKey := "achievement:" + def.Key
		exists, err := s.txRepo.ExistsByActionAndDescription(nil, user.ID, model.ActionAchievement, descKey)
		if err != nil {
			logger.Log.Error("achievement lookup failed", zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		description := fmt.Sprintf("%s %s", descKey, def.Name)
		if err := s.award(user.ID, s.achievementBonus(), model.ActionAchievement, description); err != nil {
			logger.Log.Error("achievement award failed",
				zap.String("user", user.SpiritID),
				zap.String("achievement", def.Key),
				zap.Error(err))
			continue
		}
		awarded = true
	}
	return awarded
}

// award 同一事务内追加流水并更新积分缓存，保证流水合计与缓存一致
func (s *AchievementService) award(userID uint, delta int, action model.ActionKind, description string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		t := &model.PointTransaction{
			UserID:      userID,
			Delta:       delta,
			Action:      action,
			Description: description,
		}
		if err := s.txRepo.Append(tx, t); err != nil {
			return err
		}
		return s.userRepo.ApplyCredit(tx, userID, delta, "")
	})
}
