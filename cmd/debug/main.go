package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github-portfolio/internal/adapter/analyzer"
	"github-portfolio/internal/adapter/classifier"
	"github-portfolio/internal/adapter/filter"
	"github-portfolio/internal/adapter/github"
	"github-portfolio/internal/common"
)

// 调试模式：只抓取和分析，不写库
func main() {
	username := flag.String("username", "octocat", "GitHub 用户名")
	maxRepos := flag.Int("max", 30, "最多抓取的仓库数")
	flag.Parse()

	githubToken := os.Getenv("GITHUB_TOKEN")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger, err := common.NewLogger("dev", "debug")
	if err != nil {
		log.Fatalf("❌ 日志初始化失败: %v", err)
	}
	defer logger.Sync()

	// 初始化组件
	fetcher, err := github.NewFetcher(githubToken, github.WithLogger(logger))
	if err != nil {
		log.Fatalf("❌ GitHub 客户端初始化失败: %v", err)
	}
	repoFilter := filter.NewRepoFilter(logger)
	repoClassifier := classifier.NewRuleClassifier()
	aggregator := analyzer.NewSkillAggregator()

	fmt.Printf("🔍 调试模式：获取并分析 %s 的仓库\n", *username)

	// 1. 用户统计
	stats, err := fetcher.GetUserStats(ctx, *username)
	if err != nil {
		log.Fatalf("❌ 获取用户失败: %v", err)
	}
	fmt.Printf("👤 %s: 公开仓库 %d, 粉丝 %d, 关注 %d\n", stats.Username, stats.PublicRepos, stats.Followers, stats.Following)

	// 2. 仓库列表
	repos, err := fetcher.ListUserRepos(ctx, *username, *maxRepos)
	if err != nil {
		log.Fatalf("❌ 获取仓库失败: %v", err)
	}
	fmt.Printf("✅ 成功获取 %d 个仓库\n", len(repos))

	// 3. 过滤 fork 和私有仓库
	kept := repoFilter.Filter(repos)
	fmt.Printf("✅ 过滤后剩余 %d 个仓库\n", len(kept))
	if len(kept) == 0 {
		fmt.Println("❌ 没有可展示的仓库")
		return
	}

	// 4. 分类
	fmt.Println("\n================ [ 项目分类 ] ================")
	for i, repo := range kept {
		fmt.Printf("  #%d %-30s %-10s ⭐%-5d %s\n", i+1, repo.Name, repo.Language, repo.StarCount, repoClassifier.Classify(repo))
	}

	// 5. 技能聚合
	fmt.Println("\n================ [ 技能强度 ] ================")
	for _, skill := range aggregator.Aggregate(kept) {
		fmt.Printf("  %-20s %-12s %3d\n", skill.Name, skill.Category, skill.Strength)
	}
	fmt.Println("==============================================")
}
