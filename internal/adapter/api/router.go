package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
)

// Syncer 触发导入并查询同步状态，由 service.SyncTracker 实现
type Syncer interface {
	Sync(ctx context.Context, userID, username string) (*domain.IngestResult, bool, error)
	State(userID string) domain.SyncState
}

// CacheClearer 由 service.IngestService 实现
type CacheClearer interface {
	ClearCache(ctx context.Context) error
}

// Portfolio 查询和手工数据写入，由 service.PortfolioService 实现
type Portfolio interface {
	Profile(ctx context.Context, userID string) (*domain.Profile, error)
	Projects(ctx context.Context, userID, category string, featured *bool) ([]*domain.Project, error)
	ProjectCategories(ctx context.Context, userID string) ([]string, error)
	Skills(ctx context.Context, userID, category string) ([]*domain.Skill, error)
	SkillCategories(ctx context.Context, userID string) ([]string, error)
	Achievements(ctx context.Context, userID string) ([]*domain.Achievement, error)
	GitHubStats(ctx context.Context, userID string) (*domain.GitHubStats, error)
	SaveProfile(ctx context.Context, profile *domain.Profile) error
	AddAchievement(ctx context.Context, achievement *domain.Achievement) error
}

// Pinger 存储的健康检查，可选
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig 路由依赖
type RouterConfig struct {
	Sync         Syncer
	Cache        CacheClearer
	Portfolio    Portfolio
	Health       Pinger
	Metrics      http.Handler
	Logger       *common.Logger
	AllowOrigins []string
	Mode         string // gin 模式: debug / release / test
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = common.NopLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(AccessLog(cfg.Logger))
	router.Use(CORS(cfg.AllowOrigins))

	gh := &GitHubHandler{sync: cfg.Sync, cache: cfg.Cache, logger: cfg.Logger}
	ph := &PortfolioHandler{portfolio: cfg.Portfolio}

	router.GET("/healthz", healthCheck(cfg.Health))
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := router.Group("/api")
	{
		github := api.Group("/github")
		github.POST("/fetch-data", gh.FetchData)
		github.GET("/sync-status", gh.SyncStatus)
		github.DELETE("/cache", gh.ClearCache)

		portfolio := api.Group("/portfolio")
		portfolio.GET("/profile", ph.GetProfile)
		portfolio.POST("/profile", ph.SaveProfile)
		portfolio.GET("/projects", ph.GetProjects)
		portfolio.GET("/project-categories", ph.GetProjectCategories)
		portfolio.GET("/skills", ph.GetSkills)
		portfolio.GET("/skill-categories", ph.GetSkillCategories)
		portfolio.GET("/achievements", ph.GetAchievements)
		portfolio.POST("/achievement", ph.AddAchievement)
		portfolio.GET("/github-stats", ph.GetGitHubStats)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})

	return router
}

// CORS 未配置来源时允许全部
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

func healthCheck(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{Status: "OK", Timestamp: time.Now().UTC()}
		if p != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				resp.Status = "DEGRADED"
				resp.Error = err.Error()
				c.JSON(http.StatusServiceUnavailable, resp)
				return
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
