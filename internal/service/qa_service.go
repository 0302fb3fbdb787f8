package service

import (
	"campus_spirit_backend/internal/model"
	"campus_spirit_backend/internal/util"
	"campus_spirit_backend/pkg/logger"
	"campus_spirit_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	// emptyQuestionReply 空输入的固定回复，不计积分不写日志
	emptyQuestionReply = "Ask me anything about Riverton State! Game days, traditions, events, dining, or how to rack up Spirit Points."

	// panicReply 编排过程意外崩溃时的兜底回复
	panicReply = "SpiritBot fumbled that one! Give it another try in a moment."
)

// generator 回答生成端，失败时返回带前缀的诊断文本而非错误
type generator interface {
	Generate(question string, context string, history []DialogueTurn) string
	GenerateStream(question string, context string, history []DialogueTurn) (<-chan string, <-chan error)
	CheckHealth() error
}

// contextRetriever 知识检索端，无命中返回空串
type contextRetriever interface {
	Retrieve(query string, maxResults int) string
}

// crediter 积分记账端，问答编排只做尽力而为的调用
type crediter interface {
	Credit(spiritID string, delta int, action model.ActionKind, description string) (*CreditResult, error)
	DailyStreak(spiritID string) (int, error)
}

// AskResult 一次问答的完整结果
type AskResult struct {
	Answer      string        `json:"answer"`
	Credited    *CreditResult `json:"credited,omitempty"`
	StreakBonus int           `json:"streakBonus"`
}

// QAService 问答编排：检索 → 生成 → 记账 → 审计日志
// 积分与日志都不阻断回答，子系统故障时问答降级继续
type QAService struct {
	gen       generator
	retriever contextRetriever
	points    crediter
	log       *InteractionLog
}

func NewQAService(gen generator, retriever contextRetriever, points crediter, log *InteractionLog) *QAService {
	return &QAService{
		gen:       gen,
		retriever: retriever,
		points:    points,
		log:       log,
	}
}

// Ask 非流式问答
func (s *QAService) Ask(question string, history []DialogueTurn, spiritID string) (result *AskResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("qa orchestration panic", zap.Any("panic", r))
			result = &AskResult{Answer: panicReply}
		}
	}()

	cleaned := util.CleanText(question)
	if cleaned == "" {
		return &AskResult{Answer: emptyQuestionReply}
	}

	result = &AskResult{}
	s.creditAsk(spiritID, result)

	context := s.retriever.Retrieve(cleaned, 0)
	result.Answer = s.gen.Generate(cleaned, context, history)
	monitoring.QuestionsTotal.Inc()

	if err := s.log.Record(spiritID, cleaned, result.Answer); err != nil {
		logger.Log.Warn("interaction log write failed", zap.Error(err))
	}
	return result
}

// AskStream 流式问答：原样转发生成片段，结束后补记审计日志
// 空输入退化为单片段的固定回复
func (s *QAService) AskStream(question string, history []DialogueTurn, spiritID string) (<-chan string, *AskResult) {
	cleaned := util.CleanText(question)
	if cleaned == "" {
		out := make(chan string, 1)
		out <- emptyQuestionReply
		close(out)
		return out, &AskResult{Answer: emptyQuestionReply}
	}

	result := &AskResult{}
	s.creditAsk(spiritID, result)

	context := s.retriever.Retrieve(cleaned, 0)
	fragments, errChan := s.gen.GenerateStream(cleaned, context, history)

	out := make(chan string)
	go func() {
		defer close(out)
		var full []byte
		for fragment := range fragments {
			full = append(full, fragment...)
			out <- fragment
		}
		if err := <-errChan; err != nil {
			logger.Log.Warn("generator stream interrupted", zap.Error(err))
		}
		monitoring.QuestionsTotal.Inc()
		if err := s.log.Record(spiritID, cleaned, string(full)); err != nil {
			logger.Log.Warn("interaction log write failed", zap.Error(err))
		}
	}()
	return out, result
}

// creditAsk 尽力而为地结算连续活跃奖励与提问积分
func (s *QAService) creditAsk(spiritID string, result *AskResult) {
	if spiritID == "" || !model.ValidSpiritID(spiritID) {
		return
	}

	bonus, err := s.points.DailyStreak(spiritID)
	if err != nil {
		logger.Log.Warn("streak check failed", zap.String("user", spiritID), zap.Error(err))
	} else {
		result.StreakBonus = bonus
	}

	credited, err := s.points.Credit(spiritID, 0, model.ActionQuestionAsked, "asked SpiritBot a question")
	if err != nil {
		logger.Log.Warn("question credit failed", zap.String("user", spiritID), zap.Error(err))
		return
	}
	result.Credited = credited
}
