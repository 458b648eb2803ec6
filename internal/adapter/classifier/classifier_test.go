package classifier

import (
	"fmt"
	"testing"

	"github-portfolio/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRuleClassifier_Classify(t *testing.T) {
	tests := []struct {
		name   string
		repo   *domain.RawRepository
		expect domain.Category
	}{
		{
			name:   "crypto 优先归为安全而不是区块链",
			repo:   &domain.RawRepository{Name: "crypto-lib", Description: "blockchain smart-contract"},
			expect: domain.CategoryCybersecurity,
		},
		{
			name:   "算法题",
			repo:   &domain.RawRepository{Name: "leetcode-solutions", Description: "my solutions", Language: "C++"},
			expect: domain.CategoryCompetitive,
		},
		{
			name:   "个人网站",
			repo:   &domain.RawRepository{Name: "portfolio-site", Description: "Personal website", Language: "TypeScript"},
			expect: domain.CategoryWebDevelopment,
		},
		{
			name:   "后端服务",
			repo:   &domain.RawRepository{Name: "orders", Description: "REST API for orders", Language: "Go"},
			expect: domain.CategoryBackend,
		},
		{
			name:   "机器学习",
			repo:   &domain.RawRepository{Name: "mnist", Description: "neural net", Language: "Python"},
			expect: domain.CategoryMachineLearn,
		},
		{
			name:   "移动端",
			repo:   &domain.RawRepository{Name: "fitness", Description: "flutter app", Language: "Dart"},
			expect: domain.CategoryMobile,
		},
		{
			name:   "topic 命中 DevOps",
			repo:   &domain.RawRepository{Name: "infra", Topics: []string{"Docker", "compose"}},
			expect: domain.CategoryDevOps,
		},
		{
			name:   "区块链",
			repo:   &domain.RawRepository{Name: "nft-minter", Description: "smart-contract sandbox", Language: "Solidity"},
			expect: domain.CategoryBlockchain,
		},
		{
			name:   "未命中任何规则",
			repo:   &domain.RawRepository{Name: "dotfiles", Language: "Shell"},
			expect: domain.CategoryOther,
		},
		{
			name:   "空仓库",
			repo:   &domain.RawRepository{},
			expect: domain.CategoryOther,
		},
		{
			name:   "nil",
			repo:   nil,
			expect: domain.CategoryOther,
		},
	}

	c := NewRuleClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, c.Classify(tt.repo))
		})
	}
}

func TestRuleClassifier_DeterministicAndClosed(t *testing.T) {
	allowed := make(map[domain.Category]bool)
	for _, cat := range domain.AllCategories() {
		allowed[cat] = true
	}

	words := []string{"react", "crypto", "", "kubernetes", "tensorflow", "notes", "ios", "contest", "web3"}
	c := NewRuleClassifier()

	for i, a := range words {
		for j, b := range words {
			repo := &domain.RawRepository{
				ID:          int64(i*len(words) + j),
				Name:        fmt.Sprintf("repo-%s", a),
				Description: b,
				Topics:      []string{a, b},
			}
			first := c.Classify(repo)
			assert.True(t, allowed[first], "unexpected category %q", first)
			assert.Equal(t, first, c.Classify(repo))
		}
	}
}

func TestRule_Priority(t *testing.T) {
	// 每条规则单独可测，顺序决定结果
	assert.True(t, DefaultRules[0].Matches("crypto"))
	assert.True(t, DefaultRules[len(DefaultRules)-1].Matches("crypto wallet smart-contract"))

	reversed := make([]Rule, len(DefaultRules))
	for i, r := range DefaultRules {
		reversed[len(DefaultRules)-1-i] = r
	}
	c := NewRuleClassifierWithRules(reversed)
	repo := &domain.RawRepository{Name: "crypto-lib", Description: "blockchain smart-contract"}
	assert.Equal(t, domain.CategoryBlockchain, c.Classify(repo))
}

func TestBlob(t *testing.T) {
	repo := &domain.RawRepository{Name: "Repo", Description: "Desc", Topics: []string{"A", "b"}, Language: "Go"}
	assert.Equal(t, "repo desc a b go", Blob(repo))
}

func TestSkillCategoryOf(t *testing.T) {
	tests := []struct {
		token  string
		expect domain.SkillCategory
	}{
		{"Python", domain.SkillLanguages},
		{"C", domain.SkillLanguages},
		{"c#", domain.SkillLanguages},
		{"React", domain.SkillFrameworks},
		{"next.js", domain.SkillFrameworks},
		{"docker", domain.SkillDevOps},
		{"PostgreSQL", domain.SkillDatabases},
		{"AWS", domain.SkillCloud},
		{"ai", domain.SkillTools},
		{"hacktoberfest", domain.SkillTools},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expect, SkillCategoryOf(tt.token))
		})
	}
}
