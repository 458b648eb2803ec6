package domain

import (
	"fmt"
	"time"
)

// DemoUserID 未登录 / 未指定用户时使用的演示用户
const DemoUserID = "00000000-0000-0000-0000-000000000001"

// Category 项目分类 (固定枚举)
type Category string

const (
	CategoryCybersecurity  Category = "Cybersecurity"
	CategoryCompetitive    Category = "Competitive Programming"
	CategoryWebDevelopment Category = "Web Development"
	CategoryBackend        Category = "Backend"
	CategoryMachineLearn   Category = "Machine Learning"
	CategoryMobile         Category = "Mobile Development"
	CategoryDevOps         Category = "DevOps"
	CategoryBlockchain     Category = "Blockchain"
	CategoryOther          Category = "Other"
)

// AllCategories 按分类器优先级排列的全部项目分类
func AllCategories() []Category {
	return []Category{
		CategoryCybersecurity,
		CategoryCompetitive,
		CategoryWebDevelopment,
		CategoryBackend,
		CategoryMachineLearn,
		CategoryMobile,
		CategoryDevOps,
		CategoryBlockchain,
		CategoryOther,
	}
}

// SkillCategory 技能分类
type SkillCategory string

const (
	SkillLanguages  SkillCategory = "Languages"
	SkillFrameworks SkillCategory = "Frameworks"
	SkillDevOps     SkillCategory = "DevOps"
	SkillDatabases  SkillCategory = "Databases"
	SkillCloud      SkillCategory = "Cloud"
	SkillTools      SkillCategory = "Tools"
)

// RawRepository GitHub 返回的仓库快照，只读
type RawRepository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"` // 空串表示没有
	URL         string    `json:"url"`
	Homepage    string    `json:"homepage,omitempty"`
	Language    string    `json:"language,omitempty"` // 空串表示没有主语言
	Topics      []string  `json:"topics"`
	StarCount   int       `json:"stars"`
	ForkCount   int       `json:"forks"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsFork      bool      `json:"fork"`
	IsPrivate   bool      `json:"private"`
}

// Project 由仓库派生的作品，(UserID, SourceRepoID) 唯一
type Project struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	UserID       string    `json:"userId" gorm:"not null;uniqueIndex:idx_projects_user_repo;index:idx_projects_user_category,priority:1;index:idx_projects_user_featured,priority:1"`
	SourceRepoID int64     `json:"githubRepoId" gorm:"not null;uniqueIndex:idx_projects_user_repo"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty" gorm:"type:text"`
	Category     Category  `json:"category" gorm:"index:idx_projects_user_category,priority:2"`
	Languages    []string  `json:"languages" gorm:"serializer:json"`
	Topics       []string  `json:"topics" gorm:"serializer:json"`
	Stars        int       `json:"stars"`
	Forks        int       `json:"forks"`
	URL          string    `json:"url"`
	Homepage     string    `json:"homepage,omitempty"`
	Featured     bool      `json:"featured" gorm:"index:idx_projects_user_featured,priority:2"`
	Order        *int      `json:"order,omitempty" gorm:"column:display_order"` // 手动排序，优先于 star 排序
	LastUpdated  time.Time `json:"lastUpdated"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Key 作品的自然键，用于失败记录
func (p *Project) Key() string {
	return fmt.Sprintf("project:%d", p.SourceRepoID)
}

// Skill 技能，(UserID, Name) 唯一；Name 保留原始大小写
type Skill struct {
	ID         uint          `json:"-" gorm:"primaryKey"`
	UserID     string        `json:"userId" gorm:"not null;uniqueIndex:idx_skills_user_name;index:idx_skills_user_category,priority:1"`
	Name       string        `json:"name" gorm:"not null;uniqueIndex:idx_skills_user_name"`
	Category   SkillCategory `json:"category" gorm:"index:idx_skills_user_category,priority:2"`
	Strength   int           `json:"strength"` // 0-100，批次内相对值
	UsageCount int           `json:"usageCount"`
	LastUsed   time.Time     `json:"lastUsed"`
	CreatedAt  time.Time     `json:"-"`
	UpdatedAt  time.Time     `json:"-"`
}

// Key 技能的自然键
func (s *Skill) Key() string {
	return "skill:" + s.Name
}

// GitHubStats 每个用户一行，每次导入整行覆盖
type GitHubStats struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	UserID      string    `json:"userId" gorm:"not null;uniqueIndex"`
	Username    string    `json:"username"`
	PublicRepos int       `json:"publicRepos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TableName 固定表名，避免 gorm 生成 git_hub_stats
func (GitHubStats) TableName() string { return "github_stats" }

// UserStats GitHub /users/{username} 的摘要
type UserStats struct {
	Username    string `json:"username"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// Profile 个人资料。除 Name 外的字段均可为空 (空串即缺省)
type Profile struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	UserID       string    `json:"userId" gorm:"not null;uniqueIndex"`
	Name         string    `json:"name"`
	Location     string    `json:"location,omitempty"`
	Bio          string    `json:"bio,omitempty" gorm:"type:text"`
	Tagline      string    `json:"tagline,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Email        string    `json:"email,omitempty"`
	Website      string    `json:"website,omitempty"`
	GitHub       string    `json:"github,omitempty" gorm:"column:github"`
	LinkedIn     string    `json:"linkedin,omitempty" gorm:"column:linkedin"`
	Twitter      string    `json:"twitter,omitempty"`
	ResumeURL    string    `json:"resumeUrl,omitempty"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Achievement 成就卡片，按 Order 升序展示
type Achievement struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	UserID      string    `json:"userId" gorm:"not null;index"`
	Title       string    `json:"title"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Order       int       `json:"order" gorm:"column:display_order"`
	CreatedAt   time.Time `json:"-"`
}

// ProjectOverride 手动维护的项目元数据，按小写仓库名索引
type ProjectOverride struct {
	Description string `json:"description,omitempty" koanf:"description"`
	Featured    *bool  `json:"featured,omitempty" koanf:"featured"`
	Order       *int   `json:"order,omitempty" koanf:"order"`
}

// IngestResult 一次导入的结果摘要
type IngestResult struct {
	ProjectsCount int      `json:"projectsCount"`
	SkillsCount   int      `json:"skillsCount"`
	FailedKeys    []string `json:"failedKeys,omitempty"` // 写入失败的自然键
	Cached        bool     `json:"cached,omitempty"`
}

// Partial 是否有部分写入失败
func (r *IngestResult) Partial() bool {
	return r != nil && len(r.FailedKeys) > 0
}
