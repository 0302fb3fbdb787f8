package service

import (
	"campus_spirit_backend/internal/model"
	"campus_spirit_backend/internal/repository"
	"campus_spirit_backend/internal/util"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// 维度不一致与零范数向量记 0 分
	assert.Zero(t, cosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}))
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{1, 0}))
	assert.Zero(t, cosineSimilarity(nil, nil))
}

func seedChunk(t *testing.T, repo *repository.KnowledgeChunkRepository, content, source, category string, vector []float64) {
	t.Helper()
	encoded, err := model.EncodeVector(vector)
	require.NoError(t, err)
	chunk := model.KnowledgeChunk{
		Content:   content,
		Source:    source,
		Category:  category,
		Embedding: encoded,
	}
	require.NoError(t, repo.Create(&chunk))
}

func newKnowledgeFixture(t *testing.T, emb embedder) (*KnowledgeService, *repository.KnowledgeChunkRepository) {
	t.Helper()
	repo := repository.NewKnowledgeChunkRepository(newTestDB(t))

	// 预置条目避开默认种子数据
	seedChunk(t, repo, "Ram Walk starts two hours before every home kickoff.", "Riverton Athletics", "Traditions", []float64{1, 0})
	seedChunk(t, repo, "Pritchard Library stays open until midnight on weekdays.", "Library", "Resources", []float64{0.8, 0.6})
	seedChunk(t, repo, "The Trough serves late-night food until 1am.", "Campus Dining", "Dining", []float64{0, 1})

	svc, err := NewKnowledgeService(repo, emb, 2, 0.3)
	require.NoError(t, err)
	return svc, repo
}

func TestRetrieveRanksByCosineAndFormats(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"when is ram walk": {1, 0},
	}}
	svc, _ := newKnowledgeFixture(t, emb)

	got := svc.Retrieve("when is ram walk", 0)

	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 2, "dining chunk is orthogonal and must be filtered out")
	assert.True(t, strings.HasPrefix(parts[0], "[Traditions] Ram Walk"), "best match first: %q", parts[0])
	assert.Contains(t, parts[0], "Source: Riverton Athletics")
	assert.True(t, strings.HasPrefix(parts[1], "[Resources]"))
}

func TestRetrieveHonorsSimilarityFloor(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"unrelated": {0, 1},
	}}
	svc, _ := newKnowledgeFixture(t, emb)

	// 只有 Dining 条目与查询同向
	got := svc.Retrieve("unrelated", 0)
	assert.Contains(t, got, "[Dining]")
	assert.NotContains(t, got, "[Traditions]")
}

func TestRetrieveEdgeCases(t *testing.T) {
	emb := &stubEmbedder{}
	svc, _ := newKnowledgeFixture(t, emb)

	assert.Empty(t, svc.Retrieve("", 0))
	assert.Empty(t, svc.Retrieve("   \t  ", 0))

	emb.err = util.ErrEmbeddingUnavailable
	assert.Empty(t, svc.Retrieve("anything", 0), "retrieval degrades to empty context when embedding is down")
}

func TestAddRejectsEmptyAndEmbedFailure(t *testing.T) {
	emb := &stubEmbedder{}
	svc, _ := newKnowledgeFixture(t, emb)

	assert.False(t, svc.Add("   ", "", ""))

	emb.err = util.ErrEmbeddingUnavailable
	assert.False(t, svc.Add("Gate C opens early.", "", "Athletics"))

	emb.err = nil
	assert.True(t, svc.Add("Gate C opens early.", "", ""))
	assert.Equal(t, 4, svc.Stats().Total)
	assert.Equal(t, 1, svc.Stats().ByCategory[defaultCategory])
}

func TestSeedDefaultsOnEmptyStore(t *testing.T) {
	repo := repository.NewKnowledgeChunkRepository(newTestDB(t))
	svc, err := NewKnowledgeService(repo, &stubEmbedder{}, 3, 0.3)
	require.NoError(t, err)

	assert.Equal(t, len(defaultCampusFacts), svc.Stats().Total)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, len(defaultCampusFacts), count)
}

func TestImportFlatAndGroupedFormats(t *testing.T) {
	emb := &stubEmbedder{}
	svc, _ := newKnowledgeFixture(t, emb)
	dir := t.TempDir()

	flat := filepath.Join(dir, "flat.yaml")
	require.NoError(t, os.WriteFile(flat, []byte(`
- content: The Victory Bell rings after every home win.
  source: Traditions Guide
  category: Traditions
- content: Lot R3 opens four hours before kickoff.
  category: Events
`), 0644))

	n, err := svc.ImportFile(flat)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	grouped := filepath.Join(dir, "grouped.yaml")
	require.NoError(t, os.WriteFile(grouped, []byte(`
Dining:
  - The Trough takes meal swipes until close.
Athletics:
  - content: Students enter free at Gate C.
    source: Riverton Athletics
`), 0644))

	n, err = svc.ImportFile(grouped)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.GreaterOrEqual(t, svc.Stats().ByCategory["Dining"], 1)

	_, err = svc.ImportFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestExportRoundtrip(t *testing.T) {
	emb := &stubEmbedder{}
	svc, _ := newKnowledgeFixture(t, emb)

	out := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, svc.ExportFile(out))

	// 导出的文件可以原样导入一个全新的知识库
	repo2 := repository.NewKnowledgeChunkRepository(newTestDB(t))
	seedChunk(t, repo2, "placeholder", "", "General", []float64{1, 0})
	svc2, err := NewKnowledgeService(repo2, emb, 2, 0.3)
	require.NoError(t, err)

	n, err := svc2.ImportFile(out)
	require.NoError(t, err)
	assert.Equal(t, svc.Stats().Total, n)
}

func TestSearchSubstring(t *testing.T) {
	svc, _ := newKnowledgeFixture(t, &stubEmbedder{})

	chunks, err := svc.Search("ram walk", "")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Traditions", chunks[0].Category)

	chunks, err = svc.Search("open", "Resources")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}
