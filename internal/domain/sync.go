package domain

import "time"

// SyncStatus 导入任务状态机: Idle -> InFlight -> {Succeeded, Failed}
type SyncStatus string

const (
	SyncIdle      SyncStatus = "idle"
	SyncInFlight  SyncStatus = "in_flight"
	SyncSucceeded SyncStatus = "succeeded"
	SyncFailed    SyncStatus = "failed"
)

// SyncState 某个用户最近一次导入的快照
type SyncState struct {
	UserID     string        `json:"userId"`
	Username   string        `json:"username,omitempty"`
	Status     SyncStatus    `json:"state"`
	LastError  string        `json:"lastError,omitempty"`
	LastResult *IngestResult `json:"lastResult,omitempty"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}

// Terminal 是否处于终态
func (s SyncState) Terminal() bool {
	return s.Status == SyncSucceeded || s.Status == SyncFailed
}
