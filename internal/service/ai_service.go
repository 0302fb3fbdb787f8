package service

import (
	"bufio"
	"bytes"
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/internal/util"
	"campus_spirit_backend/pkg/logger"
	"campus_spirit_backend/pkg/monitoring"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Sentinel 模型连接类诊断信息的统一前缀，UI 据此与正常回答区分
const Sentinel = "⚠️"

const (
	msgUnreachable  = Sentinel + " SpiritBot can't reach its brain right now. Make sure the model server is running, then try again!"
	msgModelMissing = Sentinel + " SpiritBot's model isn't loaded on the server yet. Ask an admin to pull it, then come back!"
	msgTimeout      = Sentinel + " SpiritBot took too long to respond. Give it another shot in a second!"
	msgTransport    = Sentinel + " SpiritBot is having trouble connecting. Hang tight and try again!"
)

// historyWindow 提示词中保留的最近对话轮数
const historyWindow = 3

// DialogueTurn 一轮对话：用户输入与助手回复
type DialogueTurn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type AIService struct {
	config   config.AIConfig
	persona  string
	sampling config.SamplingParams
	client   *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config:   cfg,
		persona:  config.BuildPersonaPrompt(),
		sampling: cfg.Sampling(),
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

// generateResponse 只依赖 response 与 done 两个字段，其余字段容忍忽略
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// CheckHealth 两级探活：端点可达、配置的模型在列
func (s *AIService) CheckHealth() error {
	resp, err := s.client.Get(s.config.BaseURL + "/api/tags")
	if err != nil {
		return util.ErrGeneratorUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return util.ErrGeneratorUnreachable
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return util.ErrGeneratorUnreachable
	}

	for _, m := range tags.Models {
		if m.Name == s.config.Model || strings.SplitN(m.Name, ":", 2)[0] == s.config.Model {
			return nil
		}
	}
	return util.ErrGeneratorModelMissing
}

// BuildPrompt 组装完整提示词：人设 + 检索上下文 + 最近对话 + 当前问题
func (s *AIService) BuildPrompt(question string, context string, history []DialogueTurn) string {
	var b strings.Builder
	b.WriteString(s.persona)

	if context != "" {
		b.WriteString("\n\nRelevant Campus Information:\n")
		b.WriteString(context)
	}

	if len(history) > 0 {
		start := 0
		if len(history) > historyWindow {
			start = len(history) - historyWindow
		}
		b.WriteString("\n\nConversation History:")
		for _, turn := range history[start:] {
			b.WriteString("\nuser: ")
			b.WriteString(util.CleanText(turn.User))
			b.WriteString("\nassistant: ")
			b.WriteString(util.CleanText(turn.Assistant))
		}
	}

	b.WriteString("\n\nuser: ")
	b.WriteString(util.CleanText(question))
	b.WriteString("\nassistant:")
	return b.String()
}

func (s *AIService) options() map[string]interface{} {
	return map[string]interface{}{
		"temperature": s.sampling.Temperature,
		"top_p":       s.sampling.TopP,
		"top_k":       s.sampling.TopK,
		"num_predict": s.sampling.NumPredict,
	}
}

// Generate 单次非流式生成，失败时返回带前缀的用户可读诊断，不抛错
func (s *AIService) Generate(question string, context string, history []DialogueTurn) string {
	if err := s.CheckHealth(); err != nil {
		if errors.Is(err, util.ErrGeneratorModelMissing) {
			monitoring.GeneratorErrorsTotal.WithLabelValues("model_missing").Inc()
			return msgModelMissing
		}
		monitoring.GeneratorErrorsTotal.WithLabelValues("unreachable").Inc()
		return msgUnreachable
	}

	reqBody := generateRequest{
		Model:   s.config.Model,
		Prompt:  s.BuildPrompt(question, context, history),
		Stream:  false,
		Options: s.options(),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		logger.Log.Error("marshal generate request", zap.Error(err))
		return msgTransport
	}

	resp, err := s.client.Post(s.config.BaseURL+"/api/generate", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		if isTimeout(err) {
			monitoring.GeneratorErrorsTotal.WithLabelValues("timeout").Inc()
			return msgTimeout
		}
		monitoring.GeneratorErrorsTotal.WithLabelValues("transport").Inc()
		logger.Log.Error("generator transport error", zap.Error(err))
		return msgTransport
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		monitoring.GeneratorErrorsTotal.WithLabelValues("http").Inc()
		body, _ := io.ReadAll(resp.Body)
		logger.Log.Error("generator returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return fmt.Sprintf("%s SpiritBot hit a snag (status %d). Try again shortly!", Sentinel, resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		monitoring.GeneratorErrorsTotal.WithLabelValues("decode").Inc()
		return msgTransport
	}

	return result.Response
}

// GenerateStream 流式生成：逐段输出 response 字段直到 done
// 人设与采样参数同非流式保持一致
func (s *AIService) GenerateStream(question string, context string, history []DialogueTurn) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errChan)

		if err := s.CheckHealth(); err != nil {
			if errors.Is(err, util.ErrGeneratorModelMissing) {
				out <- msgModelMissing
			} else {
				out <- msgUnreachable
			}
			return
		}

		reqBody := generateRequest{
			Model:   s.config.Model,
			Prompt:  s.BuildPrompt(question, context, history),
			Stream:  true,
			Options: s.options(),
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			errChan <- err
			return
		}

		resp, err := s.client.Post(s.config.BaseURL+"/api/generate", "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			if isTimeout(err) {
				out <- msgTimeout
				return
			}
			out <- msgTransport
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			out <- fmt.Sprintf("%s SpiritBot hit a snag (status %d). Try again shortly!", Sentinel, resp.StatusCode)
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					errChan <- err
				}
				break
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			var chunk generateResponse
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				continue
			}

			if chunk.Response != "" {
				out <- chunk.Response
			}
			if chunk.Done {
				break
			}
		}
	}()

	return out, errChan
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "context deadline exceeded")
}
