package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github-portfolio/internal/adapter/cache"
	"github-portfolio/internal/adapter/repository"
	"github-portfolio/internal/common"
	"github-portfolio/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGitHub 模拟 /users/{name} 与 /users/{name}/repos 两个接口
func mockGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	updated := github.Timestamp{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&github.User{
			Login:       github.String("octocat"),
			PublicRepos: github.Int(2),
			Followers:   github.Int(7),
		})
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]*github.Repository{
			{ID: github.Int64(1), Name: github.String("web-shop"), Language: github.String("TypeScript"),
				Topics: []string{"react"}, StargazersCount: github.Int(12), UpdatedAt: &updated},
			{ID: github.Int64(2), Name: github.String("dotfiles"), Language: github.String("Shell"),
				StargazersCount: github.Int(0), UpdatedAt: &updated},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) *config.Config {
	cfg := config.New()
	cfg.LogMode = "prod"
	cfg.GitHub.BaseURL = baseURL
	cfg.GitHub.Username = "octocat"
	cfg.GitHub.UserID = "u1"
	return cfg
}

func TestPick(t *testing.T) {
	assert.Equal(t, "flag", pick("flag", "cfg"))
	assert.Equal(t, "cfg", pick("", "cfg"))
}

func TestGinMode(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, ginMode("prod"))
	assert.Equal(t, gin.DebugMode, ginMode("dev"))
}

func TestBuildStore_MemoryWithoutDSN(t *testing.T) {
	st, closer, err := buildStore(context.Background(), config.New(), common.NopLogger())
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &repository.MemoryRepo{}, st)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestBuildCache(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		cfg := config.New()
		cfg.Cache.Enabled = false
		c, closer, err := buildCache(ctx, cfg)
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.Nil(t, closer)
	})

	t.Run("memory by default", func(t *testing.T) {
		c, closer, err := buildCache(ctx, config.New())
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.IsType(t, &cache.MemoryCache{}, c)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := config.New()
		cfg.Redis.Addr = "127.0.0.1:1"
		c, _, err := buildCache(ctx, cfg)
		assert.Error(t, err)
		assert.Nil(t, c)
	})
}

func TestBuildFetcherOptions(t *testing.T) {
	cfg := config.New()
	assert.Len(t, buildFetcherOptions(cfg, common.NopLogger()), 2)

	cfg.GitHub.BaseURL = "https://ghe.example.com/api/v3"
	assert.Len(t, buildFetcherOptions(cfg, common.NopLogger()), 3)
}

func TestBuildIngestOptions(t *testing.T) {
	cfg := config.New()
	assert.Len(t, buildIngestOptions(cfg, nil, nil, common.NopLogger()), 5)

	mc, err := cache.NewMemoryCache(4, time.Minute)
	require.NoError(t, err)
	cfg.Feishu.Webhook = "https://open.feishu.cn/hook"
	assert.Len(t, buildIngestOptions(cfg, mc, nil, common.NopLogger()), 7)
}

func TestIngestOnce(t *testing.T) {
	server := mockGitHub(t)
	ctx := context.Background()

	a, err := newApp(ctx, testConfig(server.URL), common.NopLogger())
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	require.NoError(t, a.ingestOnce(ctx, "u1", "octocat", &out))
	assert.Contains(t, out.String(), "项目 2 个")

	projects, err := a.portfolio.Projects(ctx, "u1", "", nil)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "web-shop", projects[0].Name)
	assert.True(t, projects[0].Featured)

	stats, err := a.portfolio.GitHubStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Followers)
}

func TestIngestOnce_RequiresUsername(t *testing.T) {
	server := mockGitHub(t)
	a, err := newApp(context.Background(), testConfig(server.URL), common.NopLogger())
	require.NoError(t, err)
	defer a.Close()

	err = a.ingestOnce(context.Background(), "u1", "", &bytes.Buffer{})
	assert.True(t, common.IsValidation(err))
}

func TestRouter_ServesDemoAndMetrics(t *testing.T) {
	server := mockGitHub(t)
	a, err := newApp(context.Background(), testConfig(server.URL), common.NopLogger())
	require.NoError(t, err)
	defer a.Close()

	h := a.router()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/portfolio/projects?userId=u1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var projects []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	assert.Len(t, projects, 6)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
