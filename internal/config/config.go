// Package config 负责进程配置: 默认值、YAML 文件、环境变量三层叠加。
package config

import (
	"fmt"
	"strings"
	"time"

	"github-portfolio/internal/domain"
)

// Config 进程配置
type Config struct {
	// LogMode dev 或 prod
	LogMode  string `koanf:"log_mode"`
	LogLevel string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	GitHub   GitHubConfig   `koanf:"github"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Cache    CacheConfig    `koanf:"cache"`
	Feishu   FeishuConfig   `koanf:"feishu"`

	// Profile 数据库里没有资料时使用的默认资料
	Profile ProfileConfig `koanf:"profile"`

	// ProjectOverrides 手动维护的项目元数据
	ProjectOverrides []ProjectOverrideConfig `koanf:"project_overrides"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	AllowOrigins    []string      `koanf:"allow_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type GitHubConfig struct {
	Token   string `koanf:"token"`
	BaseURL string `koanf:"base_url"`

	// Username / UserID 默认导入对象，也用于演示数据
	Username string `koanf:"username"`
	UserID   string `koanf:"user_id"`

	MaxRepos              int           `koanf:"max_repos"`
	PerPage               int           `koanf:"per_page"`
	FeaturedStarThreshold int           `koanf:"featured_star_threshold"`
	SyncOnStart           bool          `koanf:"sync_on_start"`
	SyncTimeout           time.Duration `koanf:"sync_timeout"`
}

type DatabaseConfig struct {
	// DSN 为空时使用内存存储
	DSN string `koanf:"dsn"`
}

type RedisConfig struct {
	// Addr 为空时使用进程内缓存
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
	Size    int           `koanf:"size"`
}

type FeishuConfig struct {
	Webhook string `koanf:"webhook"`
}

type ProfileConfig struct {
	Name         string `koanf:"name"`
	Location     string `koanf:"location"`
	Bio          string `koanf:"bio"`
	Tagline      string `koanf:"tagline"`
	ProfileImage string `koanf:"profile_image"`
	Email        string `koanf:"email"`
	Website      string `koanf:"website"`
	GitHub       string `koanf:"github"`
	LinkedIn     string `koanf:"linkedin"`
	Twitter      string `koanf:"twitter"`
	ResumeURL    string `koanf:"resume_url"`
}

// ProjectOverrideConfig 以列表形式配置，仓库名里可以带点号
type ProjectOverrideConfig struct {
	Name                   string `koanf:"name"`
	domain.ProjectOverride `koanf:",squash"`
}

// New 返回带默认值的配置
func New() *Config {
	return &Config{
		LogMode:  "dev",
		LogLevel: "info",
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		GitHub: GitHubConfig{
			MaxRepos:              100,
			PerPage:               100,
			FeaturedStarThreshold: 5,
			SyncTimeout:           2 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
			Size:    1024,
		},
	}
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must not be empty", ErrInvalidConfig)
	}
	if c.LogMode != "dev" && c.LogMode != "prod" {
		return fmt.Errorf("%w: log_mode must be dev or prod, got %q", ErrInvalidConfig, c.LogMode)
	}
	if c.GitHub.MaxRepos <= 0 {
		return fmt.Errorf("%w: github.max_repos must be positive", ErrInvalidConfig)
	}
	if c.GitHub.PerPage < 1 || c.GitHub.PerPage > 100 {
		return fmt.Errorf("%w: github.per_page must be within 1..100", ErrInvalidConfig)
	}
	if c.GitHub.FeaturedStarThreshold < 0 {
		return fmt.Errorf("%w: github.featured_star_threshold must not be negative", ErrInvalidConfig)
	}
	if c.GitHub.SyncOnStart && c.GitHub.Username == "" {
		return fmt.Errorf("%w: github.sync_on_start requires github.username", ErrInvalidConfig)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.ProjectOverrides))
	for _, o := range c.ProjectOverrides {
		name := strings.ToLower(strings.TrimSpace(o.Name))
		if name == "" {
			return fmt.Errorf("%w: project_overrides entries need a name", ErrInvalidConfig)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate project override %q", ErrInvalidConfig, o.Name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Overrides 按小写仓库名索引
func (c *Config) Overrides() map[string]domain.ProjectOverride {
	out := make(map[string]domain.ProjectOverride, len(c.ProjectOverrides))
	for _, o := range c.ProjectOverrides {
		out[strings.ToLower(strings.TrimSpace(o.Name))] = o.ProjectOverride
	}
	return out
}

// DefaultProfile 未配置名字时返回 nil，交给内置演示资料
func (c *Config) DefaultProfile() *domain.Profile {
	p := c.Profile
	if p.Name == "" {
		return nil
	}
	github := p.GitHub
	if github == "" {
		github = c.GitHub.Username
	}
	return &domain.Profile{
		UserID:       c.GitHub.UserID,
		Name:         p.Name,
		Location:     p.Location,
		Bio:          p.Bio,
		Tagline:      p.Tagline,
		ProfileImage: p.ProfileImage,
		Email:        p.Email,
		Website:      p.Website,
		GitHub:       github,
		LinkedIn:     p.LinkedIn,
		Twitter:      p.Twitter,
		ResumeURL:    p.ResumeURL,
	}
}
