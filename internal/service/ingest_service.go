package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
	"github-portfolio/internal/port"
)

const (
	// DefaultFeaturedStarThreshold star 数严格大于该值的项目自动设为精选
	DefaultFeaturedStarThreshold = 5
	// DefaultMaxRepos 每次导入最多拉取的仓库数
	DefaultMaxRepos = 100

	notifyTimeout = 15 * time.Second
)

// IngestService 导入流水线: 拉取 -> 写统计 -> 过滤 -> 分类写项目 -> 汇总写技能
type IngestService struct {
	client     port.GitHubClient
	filter     port.Filter
	classifier port.Classifier
	aggregator port.Aggregator
	store      port.Store

	cache    port.ResultCache
	cacheTTL time.Duration
	notifier port.Notifier
	metrics  *common.Metrics
	logger   *common.Logger

	maxRepos          int
	featuredThreshold int
	overrides         map[string]domain.ProjectOverride
	nowFunc           func() time.Time
}

type IngestOption func(*IngestService)

// WithCache 为导入结果加一层 TTL 缓存，ttl <= 0 时使用缓存自身的默认值
func WithCache(c port.ResultCache, ttl time.Duration) IngestOption {
	return func(s *IngestService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithNotifier(n port.Notifier) IngestOption {
	return func(s *IngestService) { s.notifier = n }
}

func WithMetrics(m *common.Metrics) IngestOption {
	return func(s *IngestService) { s.metrics = m }
}

func WithLogger(l *common.Logger) IngestOption {
	return func(s *IngestService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMaxRepos(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.maxRepos = n
		}
	}
}

func WithFeaturedThreshold(n int) IngestOption {
	return func(s *IngestService) {
		if n >= 0 {
			s.featuredThreshold = n
		}
	}
}

// WithOverrides 手动维护的项目元数据，键不区分大小写
func WithOverrides(overrides map[string]domain.ProjectOverride) IngestOption {
	return func(s *IngestService) {
		s.overrides = make(map[string]domain.ProjectOverride, len(overrides))
		for name, o := range overrides {
			s.overrides[strings.ToLower(name)] = o
		}
	}
}

func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		if now != nil {
			s.nowFunc = now
		}
	}
}

func NewIngestService(
	client port.GitHubClient,
	filter port.Filter,
	classifier port.Classifier,
	aggregator port.Aggregator,
	store port.Store,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		client:            client,
		filter:            filter,
		classifier:        classifier,
		aggregator:        aggregator,
		store:             store,
		logger:            common.NopLogger(),
		maxRepos:          DefaultMaxRepos,
		featuredThreshold: DefaultFeaturedStarThreshold,
		overrides:         map[string]domain.ProjectOverride{},
		nowFunc:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveUserID 空 userID 落到演示用户
func ResolveUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.DemoUserID
	}
	return userID
}

func cacheKey(userID, username string) string {
	return userID + ":" + username
}

// Ingest 执行一次完整导入
//
// GitHub 调用失败时在任何写入之前返回 UpstreamError。
// 统计写入失败直接中止；单个项目或技能写入失败会被记录到 FailedKeys，
// 流水线继续执行，最后连同结果一起返回 PersistenceError。
func (s *IngestService) Ingest(ctx context.Context, userID, username string) (*domain.IngestResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.NewValidationError("username 不能为空")
	}
	userID = ResolveUserID(userID)
	log := s.logger.With("user_id", userID, "username", username)

	if cached := s.lookupCache(ctx, userID, username); cached != nil {
		log.Info("⚡ 命中导入缓存")
		s.metrics.IngestFinished(common.OutcomeCached, 0)
		return cached, nil
	}

	start := s.nowFunc()
	log.Info("🚀 开始导入 GitHub 数据")

	// 1. 拉取 (任何失败都发生在写入之前)
	userStats, err := s.client.GetUserStats(ctx, username)
	if err != nil {
		return nil, s.upstreamFailed(log, start, "获取用户信息失败", err)
	}
	repos, err := s.client.ListUserRepos(ctx, username, s.maxRepos)
	if err != nil {
		return nil, s.upstreamFailed(log, start, "获取仓库列表失败", err)
	}
	log.Info("📥 拉取完成", "repos", len(repos))

	// 2. 统计整行覆盖
	statsRow := &domain.GitHubStats{
		UserID:      userID,
		Username:    userStats.Username,
		PublicRepos: userStats.PublicRepos,
		Followers:   userStats.Followers,
		Following:   userStats.Following,
		LastUpdated: s.nowFunc(),
	}
	if statsRow.Username == "" {
		statsRow.Username = username
	}
	if err := s.store.UpsertGitHubStats(ctx, statsRow); err != nil {
		log.Error("❌ 写入 GitHub 统计失败", "error", err)
		s.metrics.RecordFailed("stats")
		s.metrics.IngestFinished(common.OutcomeFailed, s.nowFunc().Sub(start))
		return nil, asPersistence(err, "写入 GitHub 统计失败")
	}
	s.metrics.RecordsUpserted("stats", 1)

	// 3. 过滤
	kept := s.filter.Filter(repos)
	log.Debug("🔍 过滤后剩余仓库", "kept", len(kept), "dropped", len(repos)-len(kept))

	result := &domain.IngestResult{}
	var firstErr error
	fail := func(kind, key string, err error) {
		log.Warn("⚠️ 写入失败，继续处理", "key", key, "error", err)
		s.metrics.RecordFailed(kind)
		result.FailedKeys = append(result.FailedKeys, key)
		if firstErr == nil {
			firstErr = err
		}
	}

	// 4. 分类并写入项目
	for _, repo := range kept {
		project := s.buildProject(userID, repo)
		if err := s.store.UpsertProject(ctx, project); err != nil {
			fail("project", project.Key(), err)
			continue
		}
		result.ProjectsCount++
	}
	s.metrics.RecordsUpserted("project", result.ProjectsCount)

	// 5. 汇总并写入技能
	for _, skill := range s.aggregator.Aggregate(kept) {
		skill.UserID = userID
		if err := s.store.UpsertSkill(ctx, skill); err != nil {
			fail("skill", skill.Key(), err)
			continue
		}
		result.SkillsCount++
	}
	s.metrics.RecordsUpserted("skill", result.SkillsCount)

	elapsed := s.nowFunc().Sub(start)
	if result.Partial() {
		s.metrics.IngestFinished(common.OutcomePartial, elapsed)
		log.Warn("⚠️ 导入部分完成", "projects", result.ProjectsCount, "skills", result.SkillsCount, "failed", len(result.FailedKeys))
	} else {
		s.metrics.IngestFinished(common.OutcomeSucceeded, elapsed)
		log.Info("🎉 导入完成", "projects", result.ProjectsCount, "skills", result.SkillsCount, "elapsed", elapsed)
		s.storeCache(ctx, userID, username, result)
	}

	s.notify(ctx, log, userID, username, result)

	if result.Partial() {
		return result, common.NewPersistenceError(fmt.Sprintf("%d 条记录写入失败", len(result.FailedKeys)), firstErr)
	}
	return result, nil
}

// ClearCache 清空导入结果缓存，未配置缓存时为空操作
func (s *IngestService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(ctx); err != nil {
		return common.WrapError(common.ErrCodeInternal, "清空缓存失败", err)
	}
	s.logger.Info("🧹 导入缓存已清空")
	return nil
}

func (s *IngestService) buildProject(userID string, repo *domain.RawRepository) *domain.Project {
	languages := []string{}
	if repo.Language != "" {
		languages = append(languages, repo.Language)
	}
	topics := make([]string, len(repo.Topics))
	copy(topics, repo.Topics)

	project := &domain.Project{
		UserID:       userID,
		SourceRepoID: repo.ID,
		Name:         repo.Name,
		Description:  repo.Description,
		Category:     s.classifier.Classify(repo),
		Languages:    languages,
		Topics:       topics,
		Stars:        repo.StarCount,
		Forks:        repo.ForkCount,
		URL:          repo.URL,
		Homepage:     repo.Homepage,
		Featured:     repo.StarCount > s.featuredThreshold,
		LastUpdated:  repo.UpdatedAt,
	}

	if o, ok := s.overrides[strings.ToLower(repo.Name)]; ok {
		if o.Description != "" {
			project.Description = o.Description
		}
		if o.Featured != nil {
			project.Featured = *o.Featured
		}
		if o.Order != nil {
			order := *o.Order
			project.Order = &order
		}
	}
	return project
}

func (s *IngestService) upstreamFailed(log *common.Logger, start time.Time, msg string, err error) error {
	log.Error("❌ "+msg, "error", err)
	switch {
	case common.IsTimeout(err):
		if common.CodeOf(err) != common.ErrCodeTimeout {
			err = common.NewTimeoutError(msg, err)
		}
	case common.IsUpstream(err):
		s.metrics.UpstreamError(common.UpstreamStatus(err))
	default:
		err = common.NewUpstreamError(0, msg, err)
		s.metrics.UpstreamError(0)
	}
	s.metrics.IngestFinished(common.OutcomeFailed, s.nowFunc().Sub(start))
	return err
}

func (s *IngestService) lookupCache(ctx context.Context, userID, username string) *domain.IngestResult {
	if s.cache == nil {
		return nil
	}
	raw, ok, err := s.cache.Get(ctx, cacheKey(userID, username))
	if err != nil {
		s.logger.Warn("⚠️ 读取缓存失败，直接导入", "error", err)
		return nil
	}
	s.metrics.CacheLookup(ok)
	if !ok {
		return nil
	}

	var result domain.IngestResult
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Warn("⚠️ 缓存内容无法解析，直接导入", "error", err)
		return nil
	}
	result.Cached = true
	return &result
}

func (s *IngestService) storeCache(ctx context.Context, userID, username string, result *domain.IngestResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(userID, username), raw, s.cacheTTL); err != nil {
		s.logger.Warn("⚠️ 写入缓存失败", "error", err)
	}
}

// notify 尽力而为，失败只记日志
func (s *IngestService) notify(ctx context.Context, log *common.Logger, userID, username string, result *domain.IngestResult) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyIngest(nctx, userID, username, result); err != nil {
		log.Warn("⚠️ 推送导入通知失败", "error", err)
	}
}

func asPersistence(err error, msg string) error {
	if common.IsPersistence(err) {
		return err
	}
	return common.NewPersistenceError(msg, err)
}
