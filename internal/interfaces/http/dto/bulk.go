package dto

import (
	"time"

	"seo-ai-api/internal/domain/entity"
)

// ResultLine 一条进度结果，附带可读日志行
type ResultLine struct {
	entity.OperationResult
	Log string `json:"log"`
}

// NewResultLine 创建进度结果行
func NewResultLine(r entity.OperationResult) ResultLine {
	return ResultLine{OperationResult: r, Log: r.LogLine()}
}

// BulkRunResponse 同步批量执行响应
type BulkRunResponse struct {
	Total   int          `json:"total"`
	Failed  int          `json:"failed"`
	Results []ResultLine `json:"results"`
}

// NewBulkRunResponse 汇总结果，结束标记不计入 total
func NewBulkRunResponse(results []entity.OperationResult) *BulkRunResponse {
	resp := &BulkRunResponse{Results: make([]ResultLine, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, NewResultLine(r))
		if r.Status == entity.ResultDone {
			continue
		}
		resp.Total++
		if r.Failed() {
			resp.Failed++
		}
	}
	return resp
}

// BulkJobResponse 批量任务响应
type BulkJobResponse struct {
	ID           string                   `json:"id"`
	Status       string                   `json:"status"`
	ItemIDs      []int64                  `json:"item_ids"`
	Options      entity.GenerationOptions `json:"options"`
	Progress     int                      `json:"progress"`
	Processed    int                      `json:"processed"`
	Failures     int                      `json:"failures"`
	Results      []ResultLine             `json:"results,omitempty"`
	ErrorMessage string                   `json:"error_message,omitempty"`
	DurationMs   int                      `json:"duration_ms,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	StartedAt    *time.Time               `json:"started_at,omitempty"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
}

// BulkJobListResponse 批量任务列表响应
type BulkJobListResponse struct {
	Jobs []*BulkJobResponse `json:"jobs"`
}

// ToBulkJobResponse 将领域实体转换为响应 DTO
func ToBulkJobResponse(j *entity.BulkJob, withResults bool) *BulkJobResponse {
	if j == nil {
		return nil
	}
	resp := &BulkJobResponse{
		ID:           j.ID,
		Status:       string(j.Status),
		ItemIDs:      j.ItemIDs,
		Options:      j.Options,
		Progress:     j.Progress,
		Processed:    j.Processed,
		Failures:     j.Failures,
		ErrorMessage: j.ErrorMessage,
		DurationMs:   j.DurationMs,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
	if withResults {
		resp.Results = make([]ResultLine, 0, len(j.Results))
		for _, r := range j.Results {
			resp.Results = append(resp.Results, NewResultLine(r))
		}
	}
	return resp
}

// ToBulkJobListResponse 转换任务列表
func ToBulkJobListResponse(jobs []*entity.BulkJob) *BulkJobListResponse {
	out := &BulkJobListResponse{Jobs: make([]*BulkJobResponse, 0, len(jobs))}
	for _, j := range jobs {
		out.Jobs = append(out.Jobs, ToBulkJobResponse(j, false))
	}
	return out
}
