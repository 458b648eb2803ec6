package analyzer

import (
	"math"
	"sort"
	"time"

	"github-portfolio/internal/adapter/classifier"
	"github-portfolio/internal/domain"
)

// SkillAggregator 实现了 port.Aggregator 接口
type SkillAggregator struct {
	categorize func(token string) domain.SkillCategory
}

// NewSkillAggregator 使用默认的技能分类表
func NewSkillAggregator() *SkillAggregator {
	return &SkillAggregator{categorize: classifier.SkillCategoryOf}
}

type tally struct {
	count    int
	lastUsed time.Time
}

// Aggregate 把一批仓库的 language 和 topics 汇总为技能
// strength 是批次内的相对值: round(100 * count / maxCount)
func (a *SkillAggregator) Aggregate(repos []*domain.RawRepository) []*domain.Skill {
	tallies := make(map[string]*tally)

	for _, repo := range repos {
		if repo == nil {
			continue
		}
		for _, token := range tokens(repo) {
			t, ok := tallies[token]
			if !ok {
				t = &tally{}
				tallies[token] = t
			}
			t.count++
			if repo.UpdatedAt.After(t.lastUsed) {
				t.lastUsed = repo.UpdatedAt
			}
		}
	}

	if len(tallies) == 0 {
		return []*domain.Skill{}
	}

	maxCount := 1
	for _, t := range tallies {
		if t.count > maxCount {
			maxCount = t.count
		}
	}

	skills := make([]*domain.Skill, 0, len(tallies))
	for name, t := range tallies {
		skills = append(skills, &domain.Skill{
			Name:       name,
			Category:   a.categorize(name),
			Strength:   strength(t.count, maxCount),
			UsageCount: t.count,
			LastUsed:   t.lastUsed,
		})
	}

	// map 遍历无序，输出按强度降序、名称升序固定下来
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Strength != skills[j].Strength {
			return skills[i].Strength > skills[j].Strength
		}
		return skills[i].Name < skills[j].Name
	})

	return skills
}

// tokens 主语言 (如有) 加全部 topic，原样作为键，只跳过空串
func tokens(repo *domain.RawRepository) []string {
	out := make([]string, 0, len(repo.Topics)+1)
	if repo.Language != "" {
		out = append(out, repo.Language)
	}
	for _, topic := range repo.Topics {
		if topic != "" {
			out = append(out, topic)
		}
	}
	return out
}

func strength(count, maxCount int) int {
	s := int(math.Round(100 * float64(count) / float64(maxCount)))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
