package port

import (
	"context"
	"time"

	"github-portfolio/internal/domain"
)

// GitHubClient (采集员): 负责从 GitHub REST API 拉取用户资料和仓库
type GitHubClient interface {
	// 非 2xx 返回 common.UpstreamError，携带状态码
	GetUserStats(ctx context.Context, username string) (*domain.UserStats, error)

	// 按 updated 排序分页拉取，最多 max 个
	ListUserRepos(ctx context.Context, username string, max int) ([]*domain.RawRepository, error)
}

// Filter (筛子): 去掉 fork 和私有仓库
type Filter interface {
	Filter(repos []*domain.RawRepository) []*domain.RawRepository
}

// Classifier (分拣员): 纯函数，相同输入总是得到相同分类
type Classifier interface {
	Classify(repo *domain.RawRepository) domain.Category
}

// Aggregator (统计员): 把一批仓库的语言和 topic 汇总为技能
// 返回的 Skill 不带 UserID，由调用方填充
type Aggregator interface {
	Aggregate(repos []*domain.RawRepository) []*domain.Skill
}

// ProjectQuery 项目列表的过滤条件，零值表示不过滤
type ProjectQuery struct {
	Category string
	Featured *bool
}

// Store (仓库管理员): 负责派生数据的幂等写入和查询
type Store interface {
	// 派生数据，全部按自然键 upsert
	UpsertGitHubStats(ctx context.Context, stats *domain.GitHubStats) error
	UpsertProject(ctx context.Context, project *domain.Project) error
	UpsertSkill(ctx context.Context, skill *domain.Skill) error

	// 不存在时返回 NOT_FOUND 错误
	GetGitHubStats(ctx context.Context, userID string) (*domain.GitHubStats, error)
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)

	ListProjects(ctx context.Context, userID string, q ProjectQuery) ([]*domain.Project, error)
	ProjectCategories(ctx context.Context, userID string) ([]string, error)
	ListSkills(ctx context.Context, userID, category string) ([]*domain.Skill, error)
	SkillCategories(ctx context.Context, userID string) ([]string, error)
	ListAchievements(ctx context.Context, userID string) ([]*domain.Achievement, error)

	// 手工维护的数据
	UpsertProfile(ctx context.Context, profile *domain.Profile) error
	AddAchievement(ctx context.Context, achievement *domain.Achievement) error
}

// ResultCache 导入结果缓存，只按 TTL 过期
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// ttl <= 0 时使用缓存的默认 TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// Notifier (信使): 导入完成后推送摘要，失败不影响导入结果
type Notifier interface {
	NotifyIngest(ctx context.Context, userID, username string, result *domain.IngestResult) error
}
