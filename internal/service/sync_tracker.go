package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
)

// DefaultSyncTimeout 单次后台导入的最长时间
const DefaultSyncTimeout = 2 * time.Minute

// Ingester 单次导入，由 IngestService 实现
type Ingester interface {
	Ingest(ctx context.Context, userID, username string) (*domain.IngestResult, error)
}

// SyncTracker 按 userID 合并并发导入，并记录每个用户的同步状态
//
// 同一 userID 的重叠请求共享正在进行的那一次导入的结果 (包括错误)，
// 即使它们携带的 username 不同。导入在与请求解绑的 context 中运行，
// 调用方取消只会让自己提前返回，不会中断导入。
type SyncTracker struct {
	ingester Ingester
	group    singleflight.Group
	timeout  time.Duration
	metrics  *common.Metrics
	logger   *common.Logger
	nowFunc  func() time.Time

	mu     sync.RWMutex
	states map[string]*domain.SyncState

	wg sync.WaitGroup
}

func NewSyncTracker(ingester Ingester, timeout time.Duration, metrics *common.Metrics, logger *common.Logger) *SyncTracker {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	if logger == nil {
		logger = common.NopLogger()
	}
	return &SyncTracker{
		ingester: ingester,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
		nowFunc:  time.Now,
		states:   make(map[string]*domain.SyncState),
	}
}

// Sync 执行或加入一次导入并等待结果，shared 表示结果来自别人发起的导入
func (t *SyncTracker) Sync(ctx context.Context, userID, username string) (result *domain.IngestResult, shared bool, err error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, common.NewValidationError("username 不能为空")
	}
	userID = ResolveUserID(userID)

	started := false
	runCtx := context.WithoutCancel(ctx)
	ch := t.group.DoChan(userID, func() (interface{}, error) {
		started = true
		return t.run(runCtx, userID, username)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if !started {
			t.metrics.SyncShared()
			t.logger.Debug("🔗 加入进行中的导入", "user_id", userID)
		}
		r, _ := res.Val.(*domain.IngestResult)
		return r, !started, res.Err
	}
}

// Trigger 后台发起一次导入，立即返回；状态通过 State 观察
func (t *SyncTracker) Trigger(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return common.NewValidationError("username 不能为空")
	}
	userID = ResolveUserID(userID)
	t.begin(userID, username)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if _, _, err := t.Sync(context.WithoutCancel(ctx), userID, username); err != nil {
			t.logger.Warn("⚠️ 后台导入失败", "user_id", userID, "error", err)
		}
	}()
	return nil
}

// Wait 等待所有 Trigger 发起的后台导入结束
func (t *SyncTracker) Wait() {
	t.wg.Wait()
}

// State 返回某个用户最近一次导入的状态快照，从未导入过时为 idle
func (t *SyncTracker) State(userID string) domain.SyncState {
	userID = ResolveUserID(userID)

	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.states[userID]
	if !ok {
		return domain.SyncState{UserID: userID, Status: domain.SyncIdle}
	}
	cp := *st
	if st.LastResult != nil {
		r := *st.LastResult
		r.FailedKeys = append([]string(nil), st.LastResult.FailedKeys...)
		cp.LastResult = &r
	}
	return cp
}

func (t *SyncTracker) run(ctx context.Context, userID, username string) (*domain.IngestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	t.begin(userID, username)
	result, err := t.ingester.Ingest(ctx, userID, username)
	t.finish(userID, result, err)
	return result, err
}

// begin Idle/终态 -> InFlight；已在进行中时不变
func (t *SyncTracker) begin(userID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[userID]
	if !ok {
		st = &domain.SyncState{UserID: userID}
		t.states[userID] = st
	}
	if st.Status == domain.SyncInFlight {
		return
	}
	now := t.nowFunc()
	st.Username = username
	st.Status = domain.SyncInFlight
	st.StartedAt = &now
	st.FinishedAt = nil
}

func (t *SyncTracker) finish(userID string, result *domain.IngestResult, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.states[userID]
	now := t.nowFunc()
	st.FinishedAt = &now
	if result != nil {
		r := *result
		st.LastResult = &r
	}
	if err != nil {
		st.Status = domain.SyncFailed
		st.LastError = err.Error()
		return
	}
	st.Status = domain.SyncSucceeded
	st.LastError = ""
}
