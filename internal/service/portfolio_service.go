package service

import (
	"context"
	"strings"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
	"github-portfolio/internal/port"
)

// FilterAll 查询参数中表示 "不过滤" 的取值
const FilterAll = "all"

// PortfolioService 只读查询 + 手工数据的写入
//
// 某个用户从未成功导入过 (没有 GitHubStats 行) 时，派生数据返回演示数据集。
type PortfolioService struct {
	store           port.Store
	defaultProfile  *domain.Profile
	defaultUsername string
	logger          *common.Logger
}

// NewPortfolioService defaultProfile 来自配置，可为 nil
func NewPortfolioService(store port.Store, defaultProfile *domain.Profile, defaultUsername string, logger *common.Logger) *PortfolioService {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &PortfolioService{
		store:           store,
		defaultProfile:  defaultProfile,
		defaultUsername: defaultUsername,
		logger:          logger,
	}
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, FilterAll) {
		return ""
	}
	return v
}

// hasIngested 是否有过成功导入
func (s *PortfolioService) hasIngested(ctx context.Context, userID string) (bool, error) {
	_, err := s.store.GetGitHubStats(ctx, userID)
	if err == nil {
		return true, nil
	}
	if common.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Profile 解析顺序: 数据库 -> 配置默认值 -> 内置演示资料
func (s *PortfolioService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	userID = ResolveUserID(userID)

	profile, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !common.IsNotFound(err) {
		return nil, err
	}

	if s.defaultProfile != nil && s.defaultProfile.Name != "" {
		cp := *s.defaultProfile
		cp.UserID = userID
		return &cp, nil
	}
	demo := DemoProfile()
	demo.UserID = userID
	if s.defaultUsername != "" {
		demo.GitHub = s.defaultUsername
	}
	return demo, nil
}

// Projects category / featured 为空或 all 时不过滤
func (s *PortfolioService) Projects(ctx context.Context, userID, category string, featured *bool) ([]*domain.Project, error) {
	userID = ResolveUserID(userID)
	q := port.ProjectQuery{Category: normalizeFilter(category), Featured: featured}

	ok, err := s.hasIngested(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return filterProjects(DemoProjects(), q), nil
	}
	return s.store.ListProjects(ctx, userID, q)
}

func (s *PortfolioService) ProjectCategories(ctx context.Context, userID string) ([]string, error) {
	userID = ResolveUserID(userID)

	ok, err := s.hasIngested(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		demo := DemoProjects()
		cats := make([]string, 0, len(demo))
		for _, p := range demo {
			cats = append(cats, string(p.Category))
		}
		return distinctSorted(cats), nil
	}
	return s.store.ProjectCategories(ctx, userID)
}

func (s *PortfolioService) Skills(ctx context.Context, userID, category string) ([]*domain.Skill, error) {
	userID = ResolveUserID(userID)
	category = normalizeFilter(category)

	ok, err := s.hasIngested(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return filterSkills(DemoSkills(), category), nil
	}
	return s.store.ListSkills(ctx, userID, category)
}

func (s *PortfolioService) SkillCategories(ctx context.Context, userID string) ([]string, error) {
	userID = ResolveUserID(userID)

	ok, err := s.hasIngested(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		demo := DemoSkills()
		cats := make([]string, 0, len(demo))
		for _, sk := range demo {
			cats = append(cats, string(sk.Category))
		}
		return distinctSorted(cats), nil
	}
	return s.store.SkillCategories(ctx, userID)
}

// Achievements 手工维护；为空且从未导入过时返回演示数据
func (s *PortfolioService) Achievements(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	userID = ResolveUserID(userID)

	list, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return list, nil
	}
	ok, err := s.hasIngested(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DemoAchievements(), nil
	}
	return list, nil
}

func (s *PortfolioService) GitHubStats(ctx context.Context, userID string) (*domain.GitHubStats, error) {
	userID = ResolveUserID(userID)

	stats, err := s.store.GetGitHubStats(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !common.IsNotFound(err) {
		return nil, err
	}
	demo := DemoGitHubStats(s.defaultUsername)
	demo.UserID = userID
	return demo, nil
}

// SaveProfile 按 userID upsert 个人资料
func (s *PortfolioService) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return common.NewValidationError("name 不能为空")
	}
	profile.UserID = ResolveUserID(profile.UserID)
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return asPersistence(err, "保存个人资料失败")
	}
	s.logger.Info("📝 个人资料已更新", "user_id", profile.UserID)
	return nil
}

// AddAchievement 追加一条成就
func (s *PortfolioService) AddAchievement(ctx context.Context, achievement *domain.Achievement) error {
	if achievement == nil || strings.TrimSpace(achievement.Title) == "" {
		return common.NewValidationError("title 不能为空")
	}
	if strings.TrimSpace(achievement.Value) == "" {
		return common.NewValidationError("value 不能为空")
	}
	achievement.UserID = ResolveUserID(achievement.UserID)
	if err := s.store.AddAchievement(ctx, achievement); err != nil {
		return asPersistence(err, "保存成就失败")
	}
	return nil
}
