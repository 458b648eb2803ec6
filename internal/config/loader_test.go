package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github-portfolio/internal/config"

	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"PORTFOLIO_CONFIG",
	"PORTFOLIO_DOTENV",
	"PORTFOLIO_LOG_MODE",
	"PORTFOLIO_SERVER__ADDR",
	"PORTFOLIO_SERVER__ALLOW_ORIGINS",
	"PORTFOLIO_GITHUB__TOKEN",
	"PORTFOLIO_GITHUB__USERNAME",
	"PORTFOLIO_GITHUB__MAX_REPOS",
	"PORTFOLIO_GITHUB__SYNC_ON_START",
	"PORTFOLIO_CACHE__TTL",
	"GITHUB_TOKEN",
	"FEISHU_WEBHOOK",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// 避免读到工作目录下的 .env
		_ = os.Setenv("PORTFOLIO_DOTENV", filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Server.Addr, convey.ShouldEqual, ":5000")
				convey.So(cfg.GitHub.MaxRepos, convey.ShouldEqual, 100)
				convey.So(cfg.GitHub.FeaturedStarThreshold, convey.ShouldEqual, 5)
				convey.So(cfg.Cache.Enabled, convey.ShouldBeTrue)
				convey.So(cfg.Cache.TTL, convey.ShouldEqual, 10*time.Minute)
				convey.So(cfg.DefaultProfile(), convey.ShouldBeNil)
				convey.So(cfg.Overrides(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("PORTFOLIO_SERVER__ADDR", ":8080")
			_ = os.Setenv("PORTFOLIO_GITHUB__USERNAME", "octocat")
			_ = os.Setenv("PORTFOLIO_GITHUB__MAX_REPOS", "30")
			_ = os.Setenv("PORTFOLIO_CACHE__TTL", "90s")
			_ = os.Setenv("PORTFOLIO_SERVER__ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000")

			cfg, err := config.Load(ctx)

			convey.Convey("Then nested keys are overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Server.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.GitHub.Username, convey.ShouldEqual, "octocat")
				convey.So(cfg.GitHub.MaxRepos, convey.ShouldEqual, 30)
				convey.So(cfg.Cache.TTL, convey.ShouldEqual, 90*time.Second)
				convey.So(cfg.Server.AllowOrigins, convey.ShouldResemble, []string{"http://localhost:5173", "http://localhost:3000"})
				convey.So(cfg.GitHub.PerPage, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading a YAML file", func() {
			path := writeTempFile(t, "portfolio.yaml", `
log_mode: prod
server:
  addr: ":9090"
github:
  username: octocat
  user_id: u1
  sync_on_start: true
profile:
  name: Ada
  location: London
project_overrides:
  - name: Hello.World
    description: The classic
    featured: true
    order: 1
  - name: spoon-knife
    featured: false
`)
			_ = os.Setenv("PORTFOLIO_CONFIG", path)
			_ = os.Setenv("PORTFOLIO_SERVER__ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogMode, convey.ShouldEqual, "prod")
				convey.So(cfg.Server.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.GitHub.SyncOnStart, convey.ShouldBeTrue)
				convey.So(cfg.GitHub.MaxRepos, convey.ShouldEqual, 100)
			})

			convey.Convey("Then overrides are keyed by lowercase name", func() {
				overrides := cfg.Overrides()
				convey.So(overrides, convey.ShouldHaveLength, 2)
				hello := overrides["hello.world"]
				convey.So(hello.Description, convey.ShouldEqual, "The classic")
				convey.So(*hello.Featured, convey.ShouldBeTrue)
				convey.So(*hello.Order, convey.ShouldEqual, 1)
				convey.So(*overrides["spoon-knife"].Featured, convey.ShouldBeFalse)
				convey.So(overrides["spoon-knife"].Order, convey.ShouldBeNil)
			})

			convey.Convey("Then the default profile is built", func() {
				p := cfg.DefaultProfile()
				convey.So(p, convey.ShouldNotBeNil)
				convey.So(p.Name, convey.ShouldEqual, "Ada")
				convey.So(p.GitHub, convey.ShouldEqual, "octocat")
				convey.So(p.UserID, convey.ShouldEqual, "u1")
			})
		})

		convey.Convey("When only GITHUB_TOKEN is set", func() {
			_ = os.Setenv("GITHUB_TOKEN", "ghp_plain")
			_ = os.Setenv("FEISHU_WEBHOOK", "https://open.feishu.cn/hook")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it is used as a fallback", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GitHub.Token, convey.ShouldEqual, "ghp_plain")
				convey.So(cfg.Feishu.Webhook, convey.ShouldEqual, "https://open.feishu.cn/hook")
			})

			convey.Convey("Then the prefixed variable takes precedence", func() {
				_ = os.Setenv("PORTFOLIO_GITHUB__TOKEN", "ghp_prefixed")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GitHub.Token, convey.ShouldEqual, "ghp_prefixed")
			})
		})

		convey.Convey("When a .env file is present", func() {
			path := writeTempFile(t, ".env", "PORTFOLIO_GITHUB__USERNAME=from-dotenv\n")
			_ = os.Setenv("PORTFOLIO_DOTENV", path)
			defer func() { _ = os.Unsetenv("PORTFOLIO_GITHUB__USERNAME") }()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its variables are loaded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GitHub.Username, convey.ShouldEqual, "from-dotenv")
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			path := writeTempFile(t, "bad.yaml", "invalid: yaml: content: [")
			_ = os.Setenv("PORTFOLIO_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("PORTFOLIO_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When sync_on_start has no username", func() {
			_ = os.Setenv("PORTFOLIO_GITHUB__SYNC_ON_START", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sync_on_start")
			})
		})
	})
}
