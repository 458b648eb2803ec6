package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
	"github-portfolio/internal/port"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresRepo 实现了 port.Store 接口
// Stats/Project/Skill 之间没有事务，中途失败时读者可能看到新的 Stats 和旧的 Project
type PostgresRepo struct {
	db *gorm.DB
}

var _ port.Store = (*PostgresRepo)(nil)

// NewPostgresRepo 初始化数据库连接 (带重试) 并自动迁移表结构
func NewPostgresRepo(ctx context.Context, dsn string, logger *common.Logger) (*PostgresRepo, error) {
	if logger == nil {
		logger = common.NopLogger()
	}

	// 1. 连接数据库，启动时数据库可能还没就绪
	var db *gorm.DB
	err := common.Do(ctx, func() error {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		return openErr
	},
		common.WithMaxRetries(5),
		common.WithInitialDelay(time.Second),
		common.WithMaxDelay(10*time.Second),
		common.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("⏳ 连接数据库失败，稍后重试", "attempt", attempt, "delay", delay, "error", err)
		}),
		common.WithRetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
	if err != nil {
		return nil, common.NewPersistenceError("连接数据库失败", err)
	}

	// 2. 自动迁移，建表并创建唯一索引和二级索引
	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &PostgresRepo{db: db}, nil
}

// NewPostgresRepoFromDB 使用已有的 gorm 连接，不做迁移
func NewPostgresRepoFromDB(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Migrate 创建五张表，彼此之间没有外键
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Profile{},
		&domain.Project{},
		&domain.Skill{},
		&domain.GitHubStats{},
		&domain.Achievement{},
	)
	if err != nil {
		return common.NewPersistenceError("数据库迁移失败", err)
	}
	return nil
}

// Ping 健康检查
func (r *PostgresRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池
func (r *PostgresRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertGitHubStats 每个用户一行，整行覆盖
func (r *PostgresRepo) UpsertGitHubStats(ctx context.Context, stats *domain.GitHubStats) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "public_repos", "followers", "following", "last_updated"}),
	}).Create(stats).Error
	if err != nil {
		return common.NewPersistenceError(fmt.Sprintf("写入 GitHub 统计失败 (user %s)", stats.UserID), err)
	}
	return nil
}

// UpsertProject 按 (user_id, source_repo_id) upsert，键本身不会被改写
func (r *PostgresRepo) UpsertProject(ctx context.Context, project *domain.Project) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "source_repo_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "category", "languages", "topics", "stars", "forks",
			"url", "homepage", "featured", "display_order", "last_updated", "updated_at",
		}),
	}).Create(project).Error
	if err != nil {
		return common.NewPersistenceError(fmt.Sprintf("写入项目 %s 失败", project.Key()), err)
	}
	return nil
}

// UpsertSkill 按 (user_id, name) upsert
func (r *PostgresRepo) UpsertSkill(ctx context.Context, skill *domain.Skill) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "strength", "usage_count", "last_used", "updated_at"}),
	}).Create(skill).Error
	if err != nil {
		return common.NewPersistenceError(fmt.Sprintf("写入技能 %s 失败", skill.Key()), err)
	}
	return nil
}

// GetGitHubStats 从未导入过时返回 NOT_FOUND
func (r *PostgresRepo) GetGitHubStats(ctx context.Context, userID string) (*domain.GitHubStats, error) {
	var stats domain.GitHubStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		return nil, notFoundOr(err, "GitHub 统计不存在")
	}
	return &stats, nil
}

func (r *PostgresRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, notFoundOr(err, "个人资料不存在")
	}
	return &profile, nil
}

// ListProjects 手动排序的在前 (升序)，其余按 star 降序
func (r *PostgresRepo) ListProjects(ctx context.Context, userID string, q port.ProjectQuery) ([]*domain.Project, error) {
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Featured != nil {
		tx = tx.Where("featured = ?", *q.Featured)
	}

	var projects []*domain.Project
	err := tx.
		Order("display_order IS NULL").
		Order("display_order ASC").
		Order("stars DESC").
		Order("id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询项目失败", err)
	}
	return projects, nil
}

// ProjectCategories 去重并排序
func (r *PostgresRepo) ProjectCategories(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(ctx, &domain.Project{}, userID)
}

// ListSkills 按强度降序，category 为空时不过滤
func (r *PostgresRepo) ListSkills(ctx context.Context, userID, category string) ([]*domain.Skill, error) {
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if category != "" {
		tx = tx.Where("category = ?", category)
	}

	var skills []*domain.Skill
	if err := tx.Order("strength DESC").Order("name ASC").Find(&skills).Error; err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询技能失败", err)
	}
	return skills, nil
}

func (r *PostgresRepo) SkillCategories(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(ctx, &domain.Skill{}, userID)
}

// ListAchievements 按手动顺序升序
func (r *PostgresRepo) ListAchievements(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	var achievements []*domain.Achievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("display_order ASC").
		Order("id ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询成就失败", err)
	}
	return achievements, nil
}

// UpsertProfile 按 user_id upsert
func (r *PostgresRepo) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "location", "bio", "tagline", "profile_image", "email",
			"website", "github", "linkedin", "twitter", "resume_url", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return common.NewPersistenceError("保存个人资料失败", err)
	}
	return nil
}

func (r *PostgresRepo) AddAchievement(ctx context.Context, achievement *domain.Achievement) error {
	if err := r.db.WithContext(ctx).Create(achievement).Error; err != nil {
		return common.NewPersistenceError("保存成就失败", err)
	}
	return nil
}

func (r *PostgresRepo) distinct(ctx context.Context, model interface{}, userID string) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ?", userID).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询分类失败", err)
	}
	return categories, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NewNotFoundError(msg)
	}
	return common.WrapError(common.ErrCodeDatabase, "查询失败", err)
}
