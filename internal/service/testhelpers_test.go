package service

import (
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/pkg/database"
	"campus_spirit_backend/pkg/logger"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "spirit-test-logs")
	if err != nil {
		panic(err)
	}
	logger.InitLogger("release", dir)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return db
}

// stubEmbedder 确定性向量替身，未登记的文本返回默认向量
type stubEmbedder struct {
	vectors     map[string][]float64
	fallbackVec []float64
	err         error
}

func (s *stubEmbedder) Embed(text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	if s.fallbackVec != nil {
		return s.fallbackVec, nil
	}
	return []float64{1, 0, 0}, nil
}

func (s *stubEmbedder) Available() bool {
	return s.err == nil
}
