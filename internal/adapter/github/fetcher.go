package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultUserAgent GitHub 要求请求带上描述性的客户端标识
	DefaultUserAgent = "Portfolio-App"
	// DefaultMaxRepos 单次导入最多拉取的仓库数
	DefaultMaxRepos = 100

	maxPerPage = 100
)

// Fetcher 实现了 port.GitHubClient 接口
// 上游失败一律返回 UpstreamError，不做自动重试
type Fetcher struct {
	client  *github.Client
	perPage int
	logger  *common.Logger
}

// Option 配置 Fetcher
type Option func(*Fetcher) error

// WithBaseURL 指向 GitHub Enterprise 或测试服务器
func WithBaseURL(raw string) Option {
	return func(f *Fetcher) error {
		if raw == "" {
			return nil
		}
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid github base url %q: %w", raw, err)
		}
		f.client.BaseURL = u
		return nil
	}
}

// WithUserAgent 覆盖默认的 User-Agent
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) error {
		if ua != "" {
			f.client.UserAgent = ua
		}
		return nil
	}
}

// WithPerPage 每页条数，上限 100
func WithPerPage(n int) Option {
	return func(f *Fetcher) error {
		if n > 0 && n <= maxPerPage {
			f.perPage = n
		}
		return nil
	}
}

func WithLogger(l *common.Logger) Option {
	return func(f *Fetcher) error {
		if l != nil {
			f.logger = l
		}
		return nil
	}
}

// NewFetcher 初始化 GitHub 客户端
// token: GitHub Personal Access Token (空字符串为匿名访问，限制 60次/小时)
func NewFetcher(token string, opts ...Option) (*Fetcher, error) {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}
	client.UserAgent = DefaultUserAgent

	f := &Fetcher{
		client:  client,
		perPage: maxPerPage,
		logger:  common.NopLogger(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// GetUserStats 获取 /users/{username}
func (f *Fetcher) GetUserStats(ctx context.Context, username string) (*domain.UserStats, error) {
	user, resp, err := f.client.Users.Get(ctx, username)
	if err != nil {
		return nil, upstreamError(resp, err, fmt.Sprintf("获取用户 %s 失败", username))
	}

	login := user.GetLogin()
	if login == "" {
		login = username
	}
	return &domain.UserStats{
		Username:    login,
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
	}, nil
}

// ListUserRepos 按 updated 排序分页拉取 /users/{username}/repos，最多 max 个
func (f *Fetcher) ListUserRepos(ctx context.Context, username string, max int) ([]*domain.RawRepository, error) {
	if max <= 0 {
		max = DefaultMaxRepos
	}
	perPage := f.perPage
	if max < perPage {
		perPage = max
	}

	opts := &github.RepositoryListOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	repos := make([]*domain.RawRepository, 0, max)
	for {
		page, resp, err := f.client.Repositories.List(ctx, username, opts)
		if err != nil {
			return nil, upstreamError(resp, err, fmt.Sprintf("获取 %s 的仓库列表失败", username))
		}

		for _, item := range page {
			repos = append(repos, toRawRepository(item))
		}
		f.logger.Debug("[GitHub] 拉取仓库分页", "username", username, "page", opts.Page, "count", len(page))

		if len(repos) >= max || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(repos) > max {
		repos = repos[:max]
	}
	return repos, nil
}

// toRawRepository 将 GitHub 的数据结构转换为 Domain 实体
func toRawRepository(item *github.Repository) *domain.RawRepository {
	topics := make([]string, len(item.Topics))
	copy(topics, item.Topics)

	return &domain.RawRepository{
		ID:          item.GetID(),
		Name:        item.GetName(),
		Description: item.GetDescription(),
		URL:         item.GetHTMLURL(),
		Homepage:    item.GetHomepage(),
		Language:    item.GetLanguage(),
		Topics:      topics,
		StarCount:   item.GetStargazersCount(),
		ForkCount:   item.GetForksCount(),
		UpdatedAt:   item.GetUpdatedAt().Time,
		IsFork:      item.GetFork(),
		IsPrivate:   item.GetPrivate(),
	}
}

// upstreamError 取出响应状态码，403/429 归为限流。传输层错误状态码为 0
func upstreamError(resp *github.Response, err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.NewTimeoutError("GitHub API 调用超时: "+msg, err)
	}
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return common.NewUpstreamError(status, "GitHub API 调用失败: "+msg, err)
}
