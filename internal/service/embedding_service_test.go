package service

import (
	"campus_spirit_backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(vector []float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vector})
	}))
}

func TestEmbed(t *testing.T) {
	srv := newEmbeddingServer([]float64{0.1, 0.2, 0.3})
	defer srv.Close()

	svc := NewEmbeddingService(testAIConfig(srv.URL))

	vector, err := svc.Embed("ram walk")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
	assert.Equal(t, 3, svc.Dimension())

	_, err = svc.Embed("   ")
	assert.Error(t, err)
}

func TestEmbedDimensionLock(t *testing.T) {
	current := []float64{1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": current})
	}))
	defer srv.Close()

	svc := NewEmbeddingService(testAIConfig(srv.URL))

	_, err := svc.Embed("first")
	require.NoError(t, err)

	// 模型被换成不同维度后必须报错而不是静默混用
	current = []float64{1, 2, 3, 4}
	_, err = svc.Embed("second")
	assert.ErrorIs(t, err, util.ErrEmbeddingDimension)
}

func TestEmbedUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewEmbeddingService(testAIConfig(srv.URL))
	_, err := svc.Embed("anything")
	assert.ErrorIs(t, err, util.ErrEmbeddingUnavailable)
	assert.False(t, svc.Available())
}

func TestAvailableCachesProbe(t *testing.T) {
	srv := newEmbeddingServer([]float64{1})
	svc := NewEmbeddingService(testAIConfig(srv.URL))

	_, err := svc.Embed("warm up")
	require.NoError(t, err)

	// 冷却期内沿用上次结果，服务端下线也不立即翻转
	srv.Close()
	assert.True(t, svc.Available())
}
