// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"seo-ai-api/internal/domain/entity"
)

// JobFilter 任务过滤条件
type JobFilter struct {
	Status entity.JobStatus
}

// BulkJobRepository 批量任务仓储接口
type BulkJobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.BulkJob) error

	// GetByID 根据 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.BulkJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.BulkJob) error

	// List 获取任务列表
	List(ctx context.Context, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.BulkJob], error)

	// UpdateStatus 更新任务状态
	UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error
}
