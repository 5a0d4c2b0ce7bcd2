package entity

import (
	"time"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// BulkJob 异步批量生成任务
type BulkJob struct {
	ID           string            `json:"id"`
	ItemIDs      []int64           `json:"item_ids"`
	Options      GenerationOptions `json:"options"`
	Status       JobStatus         `json:"status"`
	Progress     int               `json:"progress"` // 任务进度 (0-100)
	Processed    int               `json:"processed"`
	Failures     int               `json:"failures"`
	Results      []OperationResult `json:"results,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	DurationMs   int               `json:"duration_ms,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// NewBulkJob 创建新任务
func NewBulkJob(itemIDs []int64, opts GenerationOptions) *BulkJob {
	return &BulkJob{
		ItemIDs:   itemIDs,
		Options:   opts,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// Start 开始执行任务
// 重新投递的执行中任务保留已记录的进度，进度越界时清零重跑
func (j *BulkJob) Start() {
	if j.Processed < 0 || j.Processed > len(j.ItemIDs) {
		j.resetProgress()
	}
	if j.Status != JobStatusRunning || j.StartedAt == nil {
		now := time.Now()
		j.StartedAt = &now
	}
	j.Status = JobStatusRunning
}

// Remaining 尚未处理的条目
func (j *BulkJob) Remaining() []int64 {
	if j.Processed <= 0 {
		return j.ItemIDs
	}
	if j.Processed >= len(j.ItemIDs) {
		return nil
	}
	return j.ItemIDs[j.Processed:]
}

func (j *BulkJob) resetProgress() {
	j.Processed = 0
	j.Failures = 0
	j.Progress = 0
	j.Results = nil
}

// Record 追加一个条目的结果并更新进度
func (j *BulkJob) Record(itemResults []OperationResult) {
	j.Results = append(j.Results, itemResults...)
	for _, r := range itemResults {
		if r.Failed() {
			j.Failures++
		}
	}
	j.Processed++
	if len(j.ItemIDs) > 0 {
		j.UpdateProgress(j.Processed * 100 / len(j.ItemIDs))
	}
}

// Complete 完成任务
func (j *BulkJob) Complete() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdateProgress(100)
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Fail 任务失败（批次级错误）
func (j *BulkJob) Fail(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Cancel 取消任务，已处理的结果保留
func (j *BulkJob) Cancel() {
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// IsTerminal 是否已结束
func (j *BulkJob) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// UpdateProgress 更新任务进度
func (j *BulkJob) UpdateProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
}
