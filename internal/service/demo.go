package service

import (
	"sort"
	"time"

	"github-portfolio/internal/domain"
	"github-portfolio/internal/port"
)

// 演示数据固定时间，保证多次请求返回一致
var demoEpoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

// DemoUsername 未配置默认用户名时演示数据使用的 GitHub 账号
const DemoUsername = "octocat"

// DemoProfile 内置的演示资料，解析顺序中的最后一级
func DemoProfile() *domain.Profile {
	return &domain.Profile{
		UserID:       domain.DemoUserID,
		Name:         "Demo Developer",
		Location:     "Earth",
		Bio:          "Full-stack developer who enjoys building robust systems and solving real-world problems.",
		Tagline:      "Building scalable systems with a focus on user experience",
		ProfileImage: "/profile.jpg",
		GitHub:       DemoUsername,
	}
}

// DemoGitHubStats 从未导入过时展示的统计
func DemoGitHubStats(username string) *domain.GitHubStats {
	if username == "" {
		username = DemoUsername
	}
	return &domain.GitHubStats{
		UserID:      domain.DemoUserID,
		Username:    username,
		PublicRepos: 25,
		LastUpdated: demoEpoch,
	}
}

func DemoProjects() []*domain.Project {
	p := func(id int64, name, desc string, cat domain.Category, langs, topics []string, stars, forks int, featured bool, age time.Duration) *domain.Project {
		return &domain.Project{
			UserID:       domain.DemoUserID,
			SourceRepoID: id,
			Name:         name,
			Description:  desc,
			Category:     cat,
			Languages:    langs,
			Topics:       topics,
			Stars:        stars,
			Forks:        forks,
			URL:          "https://github.com/" + DemoUsername + "/" + name,
			Featured:     featured,
			LastUpdated:  demoEpoch.Add(-age),
		}
	}

	projects := []*domain.Project{
		p(1, "ai-task-manager", "A smart task management app with AI-powered prioritization and scheduling",
			domain.CategoryWebDevelopment, []string{"TypeScript", "React"}, []string{"ai", "productivity", "web-app"}, 45, 12, true, 0),
		p(2, "secure-chat", "End-to-end encrypted chat with modern security practices",
			domain.CategoryCybersecurity, []string{"Python", "JavaScript"}, []string{"security", "encryption", "chat"}, 38, 8, true, 0),
		p(3, "algo-viz", "Interactive visualization tool for common algorithms",
			domain.CategoryCompetitive, []string{"JavaScript", "React"}, []string{"algorithms", "visualization", "education"}, 62, 15, true, 0),
		p(4, "rest-framework", "Lightweight framework for building RESTful APIs",
			domain.CategoryBackend, []string{"TypeScript"}, []string{"api", "backend", "framework"}, 28, 6, false, 30*day),
		p(5, "ml-trainer", "Automated ML model training pipeline",
			domain.CategoryMachineLearn, []string{"Python"}, []string{"machine-learning", "automation", "ai"}, 19, 4, false, 60*day),
		p(6, "devops-dashboard", "Monitoring dashboard for DevOps workflows",
			domain.CategoryDevOps, []string{"TypeScript", "React"}, []string{"devops", "monitoring", "dashboard"}, 31, 9, false, 45*day),
	}
	sortProjects(projects)
	return projects
}

func DemoSkills() []*domain.Skill {
	s := func(name string, cat domain.SkillCategory, strength, usage int, age time.Duration) *domain.Skill {
		return &domain.Skill{
			UserID:     domain.DemoUserID,
			Name:       name,
			Category:   cat,
			Strength:   strength,
			UsageCount: usage,
			LastUsed:   demoEpoch.Add(-age),
		}
	}
	return []*domain.Skill{
		s("Git", domain.SkillTools, 100, 20, 0),
		s("React", domain.SkillFrameworks, 100, 10, 0),
		s("TypeScript", domain.SkillLanguages, 100, 15, 0),
		s("Python", domain.SkillLanguages, 95, 12, 10*day),
		s("JavaScript", domain.SkillLanguages, 90, 18, 5*day),
		s("Node.js", domain.SkillFrameworks, 85, 8, 15*day),
		s("Express", domain.SkillFrameworks, 80, 6, 20*day),
		s("Docker", domain.SkillDevOps, 75, 7, 12*day),
		s("PostgreSQL", domain.SkillDatabases, 70, 5, 30*day),
		s("AWS", domain.SkillCloud, 65, 4, 25*day),
	}
}

func DemoAchievements() []*domain.Achievement {
	return []*domain.Achievement{
		{UserID: domain.DemoUserID, Title: "Experience", Value: "1+ Years", Description: "Building full-stack applications", Icon: "Briefcase", Order: 0},
		{UserID: domain.DemoUserID, Title: "Projects", Value: "10 Done", Description: "Completed projects", Icon: "Code", Order: 1},
		{UserID: domain.DemoUserID, Title: "Codeforces", Value: "300+", Description: "Problems Solved", Icon: "Trophy", Order: 2},
	}
}

// filterProjects 与存储层相同的过滤语义，用于演示数据
func filterProjects(projects []*domain.Project, q port.ProjectQuery) []*domain.Project {
	out := make([]*domain.Project, 0, len(projects))
	for _, p := range projects {
		if q.Category != "" && string(p.Category) != q.Category {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		out = append(out, p)
	}
	return out
}

func filterSkills(skills []*domain.Skill, category string) []*domain.Skill {
	out := make([]*domain.Skill, 0, len(skills))
	for _, s := range skills {
		if category != "" && string(s.Category) != category {
			continue
		}
		out = append(out, s)
	}
	return out
}

// sortProjects 手动排序优先，其次 star 降序
func sortProjects(projects []*domain.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if (a.Order == nil) != (b.Order == nil) {
			return a.Order != nil
		}
		if a.Order != nil && *a.Order != *b.Order {
			return *a.Order < *b.Order
		}
		return a.Stars > b.Stars
	})
}

func distinctSorted(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
