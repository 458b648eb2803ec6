package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
	"github-portfolio/internal/port"
)

// 失败键最多展示的条数，避免卡片过长
const maxFailedKeysShown = 10

type Notifier struct {
	webhookURL   string
	httpClient   *http.Client
	logger       *common.Logger
	initialDelay time.Duration
}

var _ port.Notifier = (*Notifier)(nil)

func NewNotifier(webhook string, logger *common.Logger) *Notifier {
	if logger == nil {
		logger = common.NopLogger()
	}
	if webhook == "" {
		logger.Warn("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &Notifier{
		webhookURL:   webhook,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
		initialDelay: 500 * time.Millisecond,
	}
}

// statusError 飞书返回的非 200 状态码
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("飞书 API 报错: 状态码 %d", e.code)
}

// retryable 4xx 是请求本身有问题，重试没有意义
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

// NotifyIngest 发送导入结果卡片 (Schema 2.0)
func (n *Notifier) NotifyIngest(ctx context.Context, userID, username string, result *domain.IngestResult) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}
	if result == nil {
		return nil
	}

	body, err := json.Marshal(buildCard(userID, username, result))
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "构造卡片失败", err)
	}

	// 发送请求 (带重试机制)
	err = common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := n.httpClient.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()
		// 读完响应体，连接才能复用
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return &statusError{code: resp.StatusCode}
		}
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(n.initialDelay),
		common.WithRetryIf(retryable),
		common.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			n.logger.Warn("⏳ [Feishu] 发送失败，稍后重试", "attempt", attempt, "delay", delay, "error", err)
		}),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}

	n.logger.Debug("📨 飞书通知已发送", "user_id", userID, "username", username)
	return nil
}

func buildCard(userID, username string, result *domain.IngestResult) map[string]interface{} {
	// 1. 准备标题
	title := fmt.Sprintf("✅ GitHub 导入完成: %s", username)
	template := "green"
	if result.Partial() {
		title = fmt.Sprintf("⚠️ GitHub 导入部分失败: %s", username)
		template = "orange"
	}

	// 2. 构造 Markdown 内容
	var md strings.Builder
	fmt.Fprintf(&md, "**👤 用户:** %s\n", userID)
	fmt.Fprintf(&md, "**📦 项目:** %d  |  **🧠 技能:** %d\n", result.ProjectsCount, result.SkillsCount)
	if result.Partial() {
		shown := result.FailedKeys
		if len(shown) > maxFailedKeysShown {
			shown = shown[:maxFailedKeysShown]
		}
		fmt.Fprintf(&md, "\n**❌ 写入失败 (%d):**\n%s\n", len(result.FailedKeys), strings.Join(shown, ", "))
	}

	// 3. 构造 Schema 2.0 JSON 结构
	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": template,
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements": []map[string]interface{}{
					{
						"tag":       "markdown",
						"content":   md.String(),
						"text_size": "normal",
					},
					{
						"tag": "button",
						"text": map[string]interface{}{
							"tag":     "plain_text",
							"content": "🔗 查看 GitHub 主页",
						},
						"type": "primary",
						"behaviors": []map[string]interface{}{
							{
								"type":        "open_url",
								"default_url": "https://github.com/" + username,
							},
						},
					},
				},
			},
		},
	}
}
