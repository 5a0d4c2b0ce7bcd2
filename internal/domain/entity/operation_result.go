package entity

import (
	"fmt"
	"time"
)

// ResultStatus 子任务结果状态
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultFailure ResultStatus = "failure"
	ResultSkipped ResultStatus = "skipped"
	// ResultDone 批次结束标记
	ResultDone ResultStatus = "done"
)

// Stage 单个任务的执行阶段
type Stage string

const (
	StageNotStarted      Stage = "not_started"
	StageContextLoaded   Stage = "context_loaded"
	StagePromptBuilt     Stage = "prompt_built"
	StageAwaitingGateway Stage = "awaiting_gateway"
	StageParsed          Stage = "parsed"
	StageGatewayFailed   Stage = "gateway_failed"
	StagePersisted       Stage = "persisted"
	StagePersistFailed   Stage = "persist_failed"
)

// OperationResult 一个条目上一个子任务的执行结果
type OperationResult struct {
	ItemID     int64        `json:"item_id"`
	Task       TaskKind     `json:"task,omitempty"`
	Status     ResultStatus `json:"status"`
	Stage      Stage        `json:"stage,omitempty"`
	Label      string       `json:"label,omitempty"`
	ErrorCode  string       `json:"error_code,omitempty"`
	Message    string       `json:"message,omitempty"`
	DurationMs int64        `json:"duration_ms,omitempty"`
	At         time.Time    `json:"at"`
}

// NewSuccessResult 成功结果，标签形如 "SEO OK"
func NewSuccessResult(itemID int64, task TaskKind) OperationResult {
	return OperationResult{
		ItemID: itemID,
		Task:   task,
		Status: ResultSuccess,
		Stage:  StagePersisted,
		Label:  task.Label() + " OK",
		At:     time.Now(),
	}
}

// NewFailureResult 失败结果
func NewFailureResult(itemID int64, task TaskKind, stage Stage, code, message string) OperationResult {
	return OperationResult{
		ItemID:    itemID,
		Task:      task,
		Status:    ResultFailure,
		Stage:     stage,
		Label:     task.Label() + " Error",
		ErrorCode: code,
		Message:   message,
		At:        time.Now(),
	}
}

// NewSkippedResult 跳过结果（非错误）
func NewSkippedResult(itemID int64, task TaskKind, reason string) OperationResult {
	label := "Skipped"
	if task == TaskVision {
		label = "Alt Skipped"
	} else if task != "" {
		label = task.Label() + " Skipped"
	}
	return OperationResult{
		ItemID:  itemID,
		Task:    task,
		Status:  ResultSkipped,
		Label:   label,
		Message: reason,
		At:      time.Now(),
	}
}

// NewDoneMarker 批次结束标记
func NewDoneMarker(total, failed int) OperationResult {
	return OperationResult{
		Status:  ResultDone,
		Label:   "Completed",
		Message: fmt.Sprintf("%d results, %d failed", total, failed),
		At:      time.Now(),
	}
}

// Failed 是否失败
func (r OperationResult) Failed() bool {
	return r.Status == ResultFailure
}

// Glyph 日志符号
func (r OperationResult) Glyph() string {
	switch r.Status {
	case ResultSuccess:
		return "✓"
	case ResultFailure:
		return "✗"
	case ResultSkipped:
		return "–"
	default:
		return ">>>"
	}
}

// LogLine 生成一行进度日志
func (r OperationResult) LogLine() string {
	switch r.Status {
	case ResultDone:
		return fmt.Sprintf("%s %s (%s)", r.Glyph(), r.Label, r.Message)
	case ResultSuccess:
		return fmt.Sprintf("%s [#%d] %s", r.Glyph(), r.ItemID, r.Label)
	default:
		if r.Message == "" {
			return fmt.Sprintf("%s [#%d] %s", r.Glyph(), r.ItemID, r.Label)
		}
		return fmt.Sprintf("%s [#%d] %s (%s)", r.Glyph(), r.ItemID, r.Label, r.Message)
	}
}
