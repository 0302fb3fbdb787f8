package service

import (
	"bytes"
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/internal/util"
	"campus_spirit_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// availabilityCooldown 探活结果的缓存时长，避免模型离线时每次请求都打一遍
const availabilityCooldown = 30 * time.Second

type EmbeddingService struct {
	config config.AIConfig
	client *http.Client

	mu        sync.Mutex
	dimension int
	available bool
	checkedAt time.Time
}

func NewEmbeddingService(cfg config.AIConfig) *EmbeddingService {
	return &EmbeddingService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed 文本向量化，首次成功调用锁定输出维度，此后维度不一致视为错误
func (s *EmbeddingService) Embed(text string) ([]float64, error) {
	cleaned := util.CleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("embed: empty input")
	}

	vector, err := s.call(cleaned)
	if err != nil {
		s.markUnavailable()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(vector)
	} else if len(vector) != s.dimension {
		return nil, util.ErrEmbeddingDimension
	}
	s.available = true
	s.checkedAt = time.Now()

	return vector, nil
}

// Available 探活结果带冷却缓存
func (s *EmbeddingService) Available() bool {
	s.mu.Lock()
	if time.Since(s.checkedAt) < availabilityCooldown {
		ok := s.available
		s.mu.Unlock()
		return ok
	}
	s.mu.Unlock()

	_, err := s.Embed("ping")
	return err == nil
}

// Dimension 返回已锁定的向量维度，0 表示尚未成功调用过
func (s *EmbeddingService) Dimension() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dimension
}

func (s *EmbeddingService) call(text string) ([]float64, error) {
	reqBody := embeddingRequest{
		Model:  s.config.EmbeddingModel,
		Prompt: text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Post(s.config.BaseURL+"/api/embeddings", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, util.ErrEmbeddingUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("embedding endpoint returned non-200", zap.Int("status", resp.StatusCode))
		return nil, util.ErrEmbeddingUnavailable
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, util.ErrEmbeddingUnavailable
	}

	if len(result.Embedding) == 0 {
		return nil, util.ErrEmbeddingUnavailable
	}

	return result.Embedding, nil
}

func (s *EmbeddingService) markUnavailable() {
	s.mu.Lock()
	s.available = false
	s.checkedAt = time.Now()
	s.mu.Unlock()
}
