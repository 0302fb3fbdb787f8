package service

import (
	"campus_spirit_backend/internal/model"
	"campus_spirit_backend/internal/repository"
	"campus_spirit_backend/internal/util"
	"campus_spirit_backend/pkg/logger"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const defaultCategory = "General"

// embedder 由 EmbeddingService 实现，抽出接口便于测试替身
type embedder interface {
	Embed(text string) ([]float64, error)
	Available() bool
}

// mirrorEntry 知识条目的内存镜像，检索走内存精确线性扫描
type mirrorEntry struct {
	chunk  model.KnowledgeChunk
	vector []float64
}

type KnowledgeService struct {
	repo     *repository.KnowledgeChunkRepository
	embedder embedder

	mu            sync.RWMutex
	mirror        []mirrorEntry
	maxResults    int
	minSimilarity float64
}

func NewKnowledgeService(repo *repository.KnowledgeChunkRepository, emb embedder, maxResults int, minSimilarity float64) (*KnowledgeService, error) {
	s := &KnowledgeService{
		repo:          repo,
		embedder:      emb,
		maxResults:    maxResults,
		minSimilarity: minSimilarity,
	}

	chunks, err := repo.FindAll()
	if err != nil {
		return nil, err
	}

	for _, c := range chunks {
		vector, err := c.Vector()
		if err != nil {
			logger.Log.Warn("skipping chunk with corrupt embedding", zap.String("id", c.ID))
			continue
		}
		s.mirror = append(s.mirror, mirrorEntry{chunk: c, vector: vector})
	}

	// 首次启动空库时写入默认校园知识，保证离线可用
	if len(s.mirror) == 0 {
		s.seedDefaults()
	}

	return s, nil
}

// SetRetrievalTuning 配置热更新入口，仅调整检索参数
func (s *KnowledgeService) SetRetrievalTuning(maxResults int, minSimilarity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxResults >= 1 {
		s.maxResults = maxResults
	}
	s.minSimilarity = minSimilarity
}

// Add 清洗并入库一条知识，向量化失败或内容为空时返回 false
func (s *KnowledgeService) Add(content, source, category string) bool {
	cleaned := util.CleanText(content)
	if cleaned == "" {
		return false
	}
	if category == "" {
		category = defaultCategory
	}

	vector, err := s.embedder.Embed(cleaned)
	if err != nil {
		logger.Log.Warn("knowledge add failed: embedding unavailable", zap.Error(err))
		return false
	}

	encoded, err := model.EncodeVector(vector)
	if err != nil {
		logger.Log.Error("encode embedding", zap.Error(err))
		return false
	}

	chunk := model.KnowledgeChunk{
		Content:   cleaned,
		Source:    util.CleanText(source),
		Category:  util.CleanText(category),
		Embedding: encoded,
	}
	if err := s.repo.Create(&chunk); err != nil {
		logger.Log.Error("persist knowledge chunk", zap.Error(err))
		return false
	}

	s.mu.Lock()
	s.mirror = append(s.mirror, mirrorEntry{chunk: chunk, vector: vector})
	s.mu.Unlock()

	return true
}

type scoredEntry struct {
	entry mirrorEntry
	score float64
}

// Retrieve 余弦相似度检索，返回格式化上下文；空查询、空库或无达标条目返回空串
func (s *KnowledgeService) Retrieve(query string, maxResults int) string {
	cleaned := util.CleanText(query)
	if cleaned == "" {
		return ""
	}

	s.mu.RLock()
	entries := s.mirror
	floor := s.minSimilarity
	if maxResults < 1 {
		maxResults = s.maxResults
	}
	s.mu.RUnlock()

	if len(entries) == 0 {
		return ""
	}

	queryVector, err := s.embedder.Embed(cleaned)
	if err != nil {
		logger.Log.Warn("retrieval degraded: embedding unavailable", zap.Error(err))
		return ""
	}

	scored := make([]scoredEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.vector) == 0 {
			continue
		}
		score := cosineSimilarity(queryVector, e.vector)
		if score >= floor {
			scored = append(scored, scoredEntry{entry: e, score: score})
		}
	}

	if len(scored) == 0 {
		return ""
	}

	// 稳定排序：平分按插入顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}

	parts := make([]string, 0, len(scored))
	for _, sc := range scored {
		part := fmt.Sprintf("[%s] %s", sc.entry.chunk.Category, sc.entry.chunk.Content)
		if sc.entry.chunk.Source != "" {
			part += "\nSource: " + sc.entry.chunk.Source
		}
		parts = append(parts, part)
	}

	return strings.Join(parts, "\n\n")
}

// Search 子串匹配，供诊断与 UI 浏览，不参与问答编排
func (s *KnowledgeService) Search(query string, category string) ([]model.KnowledgeChunk, error) {
	return s.repo.Search(util.CleanText(query), category)
}

// importRecord 导入文件中的单条记录
type importRecord struct {
	Content  string `yaml:"content"`
	Source   string `yaml:"source"`
	Category string `yaml:"category"`
}

// ImportFile 导入 YAML 知识文件，两种形态：
// 记录平铺列表，或 分类名 → 条目列表（条目可以是记录或纯字符串）
func (s *KnowledgeService) ImportFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	count := 0

	var flat []importRecord
	if err := yaml.Unmarshal(data, &flat); err == nil {
		for _, rec := range flat {
			if s.Add(rec.Content, rec.Source, rec.Category) {
				count++
			}
		}
		return count, nil
	}

	var grouped map[string][]yaml.Node
	if err := yaml.Unmarshal(data, &grouped); err != nil {
		return 0, fmt.Errorf("unrecognized knowledge file format: %w", err)
	}

	categories := make([]string, 0, len(grouped))
	for cat := range grouped {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		for _, node := range grouped[cat] {
			switch node.Kind {
			case yaml.ScalarNode:
				var content string
				if err := node.Decode(&content); err != nil {
					continue
				}
				if s.Add(content, "", cat) {
					count++
				}
			case yaml.MappingNode:
				var rec importRecord
				if err := node.Decode(&rec); err != nil {
					continue
				}
				if rec.Category == "" {
					rec.Category = cat
				}
				if s.Add(rec.Content, rec.Source, rec.Category) {
					count++
				}
			}
		}
	}

	return count, nil
}

type exportRecord struct {
	Content string `yaml:"content"`
	Source  string `yaml:"source,omitempty"`
}

// ExportFile 按分类分组导出，分类名排序保证输出稳定
func (s *KnowledgeService) ExportFile(path string) error {
	s.mu.RLock()
	grouped := make(map[string][]exportRecord)
	for _, e := range s.mirror {
		grouped[e.chunk.Category] = append(grouped[e.chunk.Category], exportRecord{
			Content: e.chunk.Content,
			Source:  e.chunk.Source,
		})
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(grouped)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type KnowledgeStats struct {
	Total              int            `json:"total"`
	ByCategory         map[string]int `json:"byCategory"`
	EmbeddingAvailable bool           `json:"embeddingAvailable"`
}

func (s *KnowledgeService) Stats() KnowledgeStats {
	s.mu.RLock()
	byCategory := make(map[string]int)
	for _, e := range s.mirror {
		byCategory[e.chunk.Category]++
	}
	total := len(s.mirror)
	s.mu.RUnlock()

	return KnowledgeStats{
		Total:              total,
		ByCategory:         byCategory,
		EmbeddingAvailable: s.embedder.Available(),
	}
}

func (s *KnowledgeService) seedDefaults() {
	seeded := 0
	for _, fact := range defaultCampusFacts {
		if s.Add(fact.Content, fact.Source, fact.Category) {
			seeded++
		}
	}
	if seeded > 0 {
		logger.Log.Info("seeded default campus knowledge", zap.Int("count", seeded))
	} else {
		logger.Log.Warn("knowledge seed skipped: embedding unavailable, will retry on next empty start")
	}
}

// cosineSimilarity 零范数向量与维度不一致一律记 0 分
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	dot := 0.0
	normA := 0.0
	normB := 0.0
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
