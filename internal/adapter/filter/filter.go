package filter

import (
	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
)

// RepoFilter 实现了 port.Filter 接口
type RepoFilter struct {
	logger *common.Logger
}

// NewRepoFilter 创建新的过滤器实例，logger 为 nil 时不输出
func NewRepoFilter(logger *common.Logger) *RepoFilter {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &RepoFilter{logger: logger}
}

// Filter 去掉 fork 和私有仓库。分页期间仓库顺序可能变化，同一 ID 只保留第一次出现
func (f *RepoFilter) Filter(repos []*domain.RawRepository) []*domain.RawRepository {
	filtered := make([]*domain.RawRepository, 0, len(repos))
	seen := make(map[int64]struct{}, len(repos))
	var forks, private, dup int

	for _, repo := range repos {
		if repo == nil {
			continue
		}
		switch {
		case repo.IsFork:
			forks++
			continue
		case repo.IsPrivate:
			private++
			continue
		}
		if _, ok := seen[repo.ID]; ok {
			dup++
			continue
		}
		seen[repo.ID] = struct{}{}
		filtered = append(filtered, repo)
	}

	if forks+private+dup > 0 {
		f.logger.Debug("[Filter] 过滤仓库", "kept", len(filtered), "forks", forks, "private", private, "duplicates", dup)
	}

	return filtered
}
