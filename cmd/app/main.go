package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github-portfolio/internal/adapter/analyzer"
	"github-portfolio/internal/adapter/api"
	"github-portfolio/internal/adapter/cache"
	"github-portfolio/internal/adapter/classifier"
	"github-portfolio/internal/adapter/feishu"
	"github-portfolio/internal/adapter/filter"
	"github-portfolio/internal/adapter/github"
	"github-portfolio/internal/adapter/repository"
	"github-portfolio/internal/common"
	"github-portfolio/internal/config"
	"github-portfolio/internal/port"
	"github-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// store 带健康检查的存储
type store interface {
	port.Store
	Ping(ctx context.Context) error
}

// app 进程内所有组件
type app struct {
	cfg       *config.Config
	logger    *common.Logger
	store     store
	cache     port.ResultCache
	registry  *prometheus.Registry
	ingest    *service.IngestService
	tracker   *service.SyncTracker
	portfolio *service.PortfolioService
	closers   []io.Closer
}

func main() {
	// 1. 定义命令行参数
	mode := flag.String("mode", "serve", "运行模式: serve (HTTP 服务) 或 ingest (单次导入)")
	username := flag.String("username", "", "GitHub 用户名 (ingest 模式，默认取配置)")
	userID := flag.String("user", "", "导入数据归属的用户 ID (ingest 模式，默认取配置)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 加载配置
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}

	logger, err := common.NewLogger(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ 日志初始化失败: %v", err)
	}
	defer logger.Sync()

	// 3. 组装依赖
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("❌ 初始化失败", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// 4. 根据模式分流
	switch *mode {
	case "serve":
		err = a.serve(ctx)
	case "ingest":
		err = a.ingestOnce(ctx, pick(*userID, cfg.GitHub.UserID), pick(*username, cfg.GitHub.Username), os.Stdout)
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=serve 或 -mode=ingest")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("❌ 运行失败", "mode", *mode, "error", err)
		a.Close()
		os.Exit(1)
	}
}

func pick(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func newApp(ctx context.Context, cfg *config.Config, logger *common.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	st, closer, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.store = st
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	c, closer, err := buildCache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = c
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	fetcher, err := github.NewFetcher(cfg.GitHub.Token, buildFetcherOptions(cfg, logger)...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := common.NewMetrics(a.registry)

	a.ingest = service.NewIngestService(
		fetcher,
		filter.NewRepoFilter(logger),
		classifier.NewRuleClassifier(),
		analyzer.NewSkillAggregator(),
		st,
		buildIngestOptions(cfg, c, metrics, logger)...,
	)
	a.tracker = service.NewSyncTracker(a.ingest, cfg.GitHub.SyncTimeout, metrics, logger)
	a.portfolio = service.NewPortfolioService(st, cfg.DefaultProfile(), cfg.GitHub.Username, logger)

	if cfg.GitHub.Token == "" {
		logger.Warn("⚠️ 未配置 GitHub Token，将使用匿名额度 (60 次/小时)")
	}
	return a, nil
}

// buildStore DSN 为空时退回内存存储
func buildStore(ctx context.Context, cfg *config.Config, logger *common.Logger) (store, io.Closer, error) {
	if cfg.Database.DSN == "" {
		logger.Warn("⚠️ 未配置 database.dsn，数据只保存在内存中")
		return repository.NewMemoryRepo(), nil, nil
	}
	pg, err := repository.NewPostgresRepo(ctx, cfg.Database.DSN, logger)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg, nil
}

// buildCache 关闭缓存时返回 nil，配置了 Redis 时优先使用 Redis
func buildCache(ctx context.Context, cfg *config.Config) (port.ResultCache, io.Closer, error) {
	if !cfg.Cache.Enabled {
		return nil, nil, nil
	}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, rc, nil
	}
	mc, err := cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL)
	if err != nil {
		return nil, nil, err
	}
	return mc, nil, nil
}

func buildFetcherOptions(cfg *config.Config, logger *common.Logger) []github.Option {
	opts := []github.Option{
		github.WithPerPage(cfg.GitHub.PerPage),
		github.WithLogger(logger),
	}
	if cfg.GitHub.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHub.BaseURL))
	}
	return opts
}

func buildIngestOptions(cfg *config.Config, c port.ResultCache, metrics *common.Metrics, logger *common.Logger) []service.IngestOption {
	opts := []service.IngestOption{
		service.WithMetrics(metrics),
		service.WithLogger(logger),
		service.WithMaxRepos(cfg.GitHub.MaxRepos),
		service.WithFeaturedThreshold(cfg.GitHub.FeaturedStarThreshold),
		service.WithOverrides(cfg.Overrides()),
	}
	if c != nil {
		opts = append(opts, service.WithCache(c, cfg.Cache.TTL))
	}
	if cfg.Feishu.Webhook != "" {
		opts = append(opts, service.WithNotifier(feishu.NewNotifier(cfg.Feishu.Webhook, logger)))
	}
	return opts
}

func ginMode(logMode string) string {
	if logMode == "prod" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

func (a *app) router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Sync:         a.tracker,
		Cache:        a.ingest,
		Portfolio:    a.portfolio,
		Health:       a.store,
		Metrics:      promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}),
		Logger:       a.logger,
		AllowOrigins: a.cfg.Server.AllowOrigins,
		Mode:         ginMode(a.cfg.LogMode),
	})
}

// serve 阻塞直到 ctx 取消，然后优雅关闭
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.router(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	if a.cfg.GitHub.SyncOnStart {
		if err := a.tracker.Trigger(ctx, a.cfg.GitHub.UserID, a.cfg.GitHub.Username); err != nil {
			a.logger.Warn("⚠️ 启动同步未触发", "error", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 服务已启动", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("👋 收到停止信号，正在退出...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.tracker.Wait()
	return nil
}

// ingestOnce 执行一次导入并打印摘要
func (a *app) ingestOnce(ctx context.Context, userID, username string, out io.Writer) error {
	if username == "" {
		return common.NewValidationError("缺少 GitHub 用户名，请使用 -username 或配置 github.username")
	}
	result, _, err := a.tracker.Sync(ctx, userID, username)
	if result != nil {
		fmt.Fprintf(out, "✅ %s: 项目 %d 个, 技能 %d 个\n", username, result.ProjectsCount, result.SkillsCount)
		for _, key := range result.FailedKeys {
			fmt.Fprintf(out, "  ❌ 写入失败: %s\n", key)
		}
	}
	return err
}

// Close 依次关闭外部连接，可重复调用
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("关闭连接失败", "error", err)
		}
	}
	a.closers = nil
}
