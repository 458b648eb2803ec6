package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "PORTFOLIO_"
	envConfig  = envPrefix + "CONFIG"
	envDotFile = envPrefix + "DOTENV"
)

// Load 依次叠加 (低 -> 高):
//  1. 默认值 New()
//  2. PORTFOLIO_CONFIG 指向的 YAML 文件
//  3. PORTFOLIO_ 前缀的环境变量，"__" 表示层级，例如 PORTFOLIO_GITHUB__TOKEN
//
// 启动前会尝试加载 .env (或 PORTFOLIO_DOTENV 指定的文件)，已存在的环境变量不会被覆盖。
// 最后补上通用变量 GITHUB_TOKEN / FEISHU_WEBHOOK 并校验。
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.ProviderWithValue(envPrefix, ".", envKeyValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	// PORTFOLIO_CONFIG / PORTFOLIO_DOTENV 本身不是配置项
	k.Delete("config")
	k.Delete("dotenv")

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	applyFallbacks(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envListKeys 环境变量里用逗号分隔的列表项
var envListKeys = map[string]struct{}{
	"server.allow_origins": {},
}

// envKeyValue PORTFOLIO_SERVER__ALLOW_ORIGINS=a,b -> server.allow_origins = [a b]
func envKeyValue(key, value string) (string, interface{}) {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ReplaceAll(strings.ToLower(key), "__", ".")
	if _, ok := envListKeys[key]; !ok {
		return key, value
	}
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

func loadDotEnv() error {
	path := os.Getenv(envDotFile)
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
}

func applyFallbacks(cfg *Config) {
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Feishu.Webhook == "" {
		cfg.Feishu.Webhook = os.Getenv("FEISHU_WEBHOOK")
	}
}
