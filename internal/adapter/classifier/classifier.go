package classifier

import (
	"strings"

	"github-portfolio/internal/domain"
)

// Rule 一条分类规则: blob 中出现任一关键词即命中
type Rule struct {
	Category domain.Category
	Keywords []string
}

// DefaultRules 按优先级排列，先命中者胜出。"crypto" 同时属于安全和区块链，排在前面的安全规则生效
var DefaultRules = []Rule{
	{Category: domain.CategoryCybersecurity, Keywords: []string{"security", "cyber", "hack", "ctf", "exploit", "vulnerability", "pentest", "crypto", "encrypt"}},
	{Category: domain.CategoryCompetitive, Keywords: []string{"algorithm", "leetcode", "codeforce", "competitive", "problem", "contest", "dsa"}},
	{Category: domain.CategoryWebDevelopment, Keywords: []string{"web", "react", "vue", "angular", "frontend", "ui", "website", "web-app"}},
	{Category: domain.CategoryBackend, Keywords: []string{"backend", "api", "node", "express", "django", "flask", "server", "database"}},
	{Category: domain.CategoryMachineLearn, Keywords: []string{"ml", "machine learning", "ai", "neural", "deep-learning", "tensorflow", "pytorch"}},
	{Category: domain.CategoryMobile, Keywords: []string{"mobile", "flutter", "react-native", "android", "ios"}},
	{Category: domain.CategoryDevOps, Keywords: []string{"devops", "docker", "kubernetes", "ci-cd", "deployment", "jenkins"}},
	{Category: domain.CategoryBlockchain, Keywords: []string{"blockchain", "web3", "smart-contract"}},
}

// RuleClassifier 实现了 port.Classifier 接口
type RuleClassifier struct {
	rules []Rule
}

// NewRuleClassifier 使用默认规则表
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: DefaultRules}
}

// NewRuleClassifierWithRules 自定义规则表，未命中时仍归为 Other
func NewRuleClassifierWithRules(rules []Rule) *RuleClassifier {
	return &RuleClassifier{rules: rules}
}

// Classify 按规则表顺序匹配，全部未命中返回 Other
func (c *RuleClassifier) Classify(repo *domain.RawRepository) domain.Category {
	if repo == nil {
		return domain.CategoryOther
	}

	text := Blob(repo)
	for _, rule := range c.rules {
		if rule.Matches(text) {
			return rule.Category
		}
	}
	return domain.CategoryOther
}

// Matches 子串匹配，text 应已转为小写
func (r Rule) Matches(text string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Blob 拼接 name、description、topics、language 并转小写
func Blob(repo *domain.RawRepository) string {
	parts := []string{repo.Name, repo.Description, strings.Join(repo.Topics, " "), repo.Language}
	return strings.ToLower(strings.Join(parts, " "))
}
