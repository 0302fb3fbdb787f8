package service

import (
	"campus_spirit_backend/internal/util"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// interactionRecord 问答日志行，NDJSON 每行一条
type interactionRecord struct {
	Timestamp         string  `json:"timestamp"`
	UserID            *string `json:"user_id"`
	UserMessage       string  `json:"user_message"`
	AssistantResponse string  `json:"assistant_response"`
}

// InteractionLog 按天分文件的问答审计日志
type InteractionLog struct {
	dir string
	mu  sync.Mutex
}

func NewInteractionLog(dir string) *InteractionLog {
	return &InteractionLog{dir: dir}
}

// Record 追加一条问答记录，文件名为当天日期
// 匿名请求 user_id 写 null
func (l *InteractionLog) Record(spiritID, userMessage, assistantResponse string) error {
	now := time.Now()
	rec := interactionRecord{
		Timestamp:         now.Format(time.RFC3339),
		UserMessage:       userMessage,
		AssistantResponse: assistantResponse,
	}
	if spiritID != "" {
		rec.UserID = &spiritID
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(l.dir, now.Format(util.DateFormat)+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(line)
	return err
}
