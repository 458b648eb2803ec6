package feishu

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFeishuServer 创建模拟的飞书 Webhook 服务器
func mockFeishuServer(t *testing.T, statusCode int, calls *int32, validatePayload func(*testing.T, map[string]interface{})) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		// 验证请求方法和 Content-Type
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		// 读取并解析请求体
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal(body, &payload))

		if validatePayload != nil {
			validatePayload(t, payload)
		}

		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(`{"code": 0, "msg": "success"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func cardHeader(t *testing.T, payload map[string]interface{}) (string, string) {
	card, ok := payload["card"].(map[string]interface{})
	require.True(t, ok)
	header := card["header"].(map[string]interface{})
	title := header["title"].(map[string]interface{})
	return title["content"].(string), header["template"].(string)
}

func cardMarkdown(t *testing.T, payload map[string]interface{}) string {
	card := payload["card"].(map[string]interface{})
	body := card["body"].(map[string]interface{})
	elements := body["elements"].([]interface{})
	require.NotEmpty(t, elements)
	return elements[0].(map[string]interface{})["content"].(string)
}

func TestNotifier_NotifyIngest(t *testing.T) {
	tests := []struct {
		name            string
		result          *domain.IngestResult
		statusCode      int
		expectError     bool
		expectCalls     int32
		validatePayload func(*testing.T, map[string]interface{})
	}{
		{
			name:        "成功发送通知",
			result:      &domain.IngestResult{ProjectsCount: 12, SkillsCount: 7},
			statusCode:  http.StatusOK,
			expectCalls: 1,
			validatePayload: func(t *testing.T, payload map[string]interface{}) {
				assert.Equal(t, "interactive", payload["msg_type"])
				title, template := cardHeader(t, payload)
				assert.Equal(t, "✅ GitHub 导入完成: octocat", title)
				assert.Equal(t, "green", template)
				md := cardMarkdown(t, payload)
				assert.Contains(t, md, "**📦 项目:** 12")
				assert.Contains(t, md, "**🧠 技能:** 7")
			},
		},
		{
			name:        "部分失败使用橙色卡片并列出失败键",
			result:      &domain.IngestResult{ProjectsCount: 2, SkillsCount: 1, FailedKeys: []string{"project:9", "skill:Go"}},
			statusCode:  http.StatusOK,
			expectCalls: 1,
			validatePayload: func(t *testing.T, payload map[string]interface{}) {
				title, template := cardHeader(t, payload)
				assert.Contains(t, title, "部分失败")
				assert.Equal(t, "orange", template)
				assert.Contains(t, cardMarkdown(t, payload), "project:9, skill:Go")
			},
		},
		{
			name:        "服务端错误会重试",
			result:      &domain.IngestResult{ProjectsCount: 1},
			statusCode:  http.StatusInternalServerError,
			expectError: true,
			expectCalls: 4,
		},
		{
			name:        "4xx 不重试",
			result:      &domain.IngestResult{ProjectsCount: 1},
			statusCode:  http.StatusBadRequest,
			expectError: true,
			expectCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := mockFeishuServer(t, tt.statusCode, &calls, tt.validatePayload)

			n := NewNotifier(server.URL, nil)
			n.initialDelay = time.Millisecond

			err := n.NotifyIngest(context.Background(), "u1", "octocat", tt.result)

			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, common.ErrCodeNotification, common.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestNotifier_EmptyWebhook(t *testing.T) {
	n := NewNotifier("", nil)

	err := n.NotifyIngest(context.Background(), "u1", "octocat", &domain.IngestResult{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Webhook URL 为空")
}

func TestNotifier_ContextCancelled(t *testing.T) {
	var calls int32
	server := mockFeishuServer(t, http.StatusOK, &calls, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNotifier(server.URL, nil)
	n.initialDelay = time.Millisecond

	err := n.NotifyIngest(ctx, "u1", "octocat", &domain.IngestResult{})
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestBuildCard_TruncatesFailedKeys(t *testing.T) {
	keys := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		keys = append(keys, "skill:x")
	}

	card := buildCard("u1", "octocat", &domain.IngestResult{FailedKeys: keys})
	raw, err := json.Marshal(card)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Contains(t, cardMarkdown(t, payload), "写入失败 (15)")
}

func TestNotifier_RetriesReuseConnection(t *testing.T) {
	var calls, conns int32
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("upstream unavailable\n", 100)))
	}))
	server.Config.ConnState = func(c net.Conn, state http.ConnState) {
		if state == http.StateNew {
			atomic.AddInt32(&conns, 1)
		}
	}
	server.Start()
	defer server.Close()

	n := NewNotifier(server.URL, nil)
	n.initialDelay = time.Millisecond

	err := n.NotifyIngest(context.Background(), "u1", "octocat", &domain.IngestResult{ProjectsCount: 1})

	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&conns), "重试应复用同一个连接")
}
