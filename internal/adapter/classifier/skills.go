package classifier

import (
	"strings"

	"github-portfolio/internal/domain"
)

// 技能分类成员表，按小写名称查找，查找顺序即优先级
var skillMembership = []struct {
	category domain.SkillCategory
	names    []string
}{
	{domain.SkillLanguages, []string{"python", "javascript", "typescript", "java", "cpp", "c++", "c#", "go", "rust", "php", "ruby", "swift", "dart", "c", "kotlin"}},
	{domain.SkillFrameworks, []string{"react", "vue", "angular", "svelte", "express", "fastapi", "django", "flask", "spring", "dotnet", "nextjs", "next.js", "nestjs", "laravel"}},
	{domain.SkillDevOps, []string{"docker", "kubernetes", "terraform", "jenkins", "circleci", "github", "gitlab"}},
	{domain.SkillDatabases, []string{"mongodb", "postgresql", "mysql", "redis", "dynamodb", "cassandra"}},
	{domain.SkillCloud, []string{"aws", "gcp", "azure", "heroku", "vercel", "netlify"}},
}

var skillIndex = buildSkillIndex()

func buildSkillIndex() map[string]domain.SkillCategory {
	idx := make(map[string]domain.SkillCategory)
	for _, group := range skillMembership {
		for _, name := range group.names {
			if _, exists := idx[name]; !exists {
				idx[name] = group.category
			}
		}
	}
	return idx
}

// SkillCategoryOf 未收录的 token (多为自由 topic) 归入 Tools
func SkillCategoryOf(token string) domain.SkillCategory {
	if cat, ok := skillIndex[strings.ToLower(strings.TrimSpace(token))]; ok {
		return cat
	}
	return domain.SkillTools
}
