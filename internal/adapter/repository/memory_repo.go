package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
	"github-portfolio/internal/port"
)

type projectKey struct {
	userID string
	repoID int64
}

type skillKey struct {
	userID string
	name   string
}

// MemoryRepo 进程内的 port.Store 实现，未配置数据库时使用
// 读写都做拷贝，调用方拿到的对象与存储互不影响
type MemoryRepo struct {
	mu           sync.RWMutex
	nextID       uint
	projects     map[projectKey]*domain.Project
	skills       map[skillKey]*domain.Skill
	stats        map[string]*domain.GitHubStats
	profiles     map[string]*domain.Profile
	achievements map[string][]*domain.Achievement
	nowFunc      func() time.Time
}

var _ port.Store = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		projects:     make(map[projectKey]*domain.Project),
		skills:       make(map[skillKey]*domain.Skill),
		stats:        make(map[string]*domain.GitHubStats),
		profiles:     make(map[string]*domain.Profile),
		achievements: make(map[string][]*domain.Achievement),
		nowFunc:      time.Now,
	}
}

func (r *MemoryRepo) Ping(ctx context.Context) error { return ctx.Err() }

func (r *MemoryRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *MemoryRepo) UpsertGitHubStats(ctx context.Context, stats *domain.GitHubStats) error {
	if err := ctx.Err(); err != nil {
		return common.NewPersistenceError("写入 GitHub 统计失败", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *stats
	if existing, ok := r.stats[stats.UserID]; ok {
		cp.ID = existing.ID
	} else {
		cp.ID = r.id()
	}
	r.stats[stats.UserID] = &cp
	stats.ID = cp.ID
	return nil
}

func (r *MemoryRepo) UpsertProject(ctx context.Context, project *domain.Project) error {
	if err := ctx.Err(); err != nil {
		return common.NewPersistenceError("写入项目 "+project.Key()+" 失败", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := projectKey{project.UserID, project.SourceRepoID}
	cp := cloneProject(project)
	now := r.nowFunc()
	if existing, ok := r.projects[key]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = r.id()
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.projects[key] = cp
	project.ID = cp.ID
	return nil
}

func (r *MemoryRepo) UpsertSkill(ctx context.Context, skill *domain.Skill) error {
	if err := ctx.Err(); err != nil {
		return common.NewPersistenceError("写入技能 "+skill.Key()+" 失败", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := skillKey{skill.UserID, skill.Name}
	cp := *skill
	now := r.nowFunc()
	if existing, ok := r.skills[key]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = r.id()
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.skills[key] = &cp
	skill.ID = cp.ID
	return nil
}

func (r *MemoryRepo) GetGitHubStats(ctx context.Context, userID string) (*domain.GitHubStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats, ok := r.stats[userID]
	if !ok {
		return nil, common.NewNotFoundError("GitHub 统计不存在")
	}
	cp := *stats
	return &cp, nil
}

func (r *MemoryRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, common.NewNotFoundError("个人资料不存在")
	}
	cp := *profile
	return &cp, nil
}

// ListProjects 排序规则与 PostgresRepo 一致
func (r *MemoryRepo) ListProjects(ctx context.Context, userID string, q port.ProjectQuery) ([]*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Project, 0)
	for key, p := range r.projects {
		if key.userID != userID {
			continue
		}
		if q.Category != "" && string(p.Category) != q.Category {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		out = append(out, cloneProject(p))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Stars != b.Stars:
			return a.Stars > b.Stars
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *MemoryRepo) ProjectCategories(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for key, p := range r.projects {
		if key.userID == userID {
			set[string(p.Category)] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func (r *MemoryRepo) ListSkills(ctx context.Context, userID, category string) ([]*domain.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Skill, 0)
	for key, s := range r.skills {
		if key.userID != userID {
			continue
		}
		if category != "" && string(s.Category) != category {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MemoryRepo) SkillCategories(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for key, s := range r.skills {
		if key.userID == userID {
			set[string(s.Category)] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func (r *MemoryRepo) ListAchievements(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.achievements[userID]
	out := make([]*domain.Achievement, 0, len(src))
	for _, a := range src {
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return common.NewPersistenceError("保存个人资料失败", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *profile
	now := r.nowFunc()
	if existing, ok := r.profiles[profile.UserID]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = r.id()
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.profiles[profile.UserID] = &cp
	profile.ID = cp.ID
	return nil
}

func (r *MemoryRepo) AddAchievement(ctx context.Context, achievement *domain.Achievement) error {
	if err := ctx.Err(); err != nil {
		return common.NewPersistenceError("保存成就失败", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *achievement
	cp.ID = r.id()
	cp.CreatedAt = r.nowFunc()
	r.achievements[achievement.UserID] = append(r.achievements[achievement.UserID], &cp)
	achievement.ID = cp.ID
	return nil
}

func cloneProject(p *domain.Project) *domain.Project {
	cp := *p
	cp.Languages = cloneStrings(p.Languages)
	cp.Topics = cloneStrings(p.Topics)
	if p.Order != nil {
		order := *p.Order
		cp.Order = &order
	}
	return &cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
