package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
)

// JobRepository 批量任务仓储实现
type JobRepository struct {
	client *Client
}

// NewJobRepository 创建批量任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

var _ repository.BulkJobRepository = (*JobRepository)(nil)

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.BulkJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create")
	defer span.End()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	m, err := fromJobEntity(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := getDB(ctx, r.client.db).Create(m).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create job: %w", err)
	}
	job.CreatedAt, job.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.BulkJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var m bulkJobModel
	if err := getDB(ctx, r.client.db).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return toJobEntity(&m)
}

// Update 更新任务
func (r *JobRepository) Update(ctx context.Context, job *entity.BulkJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Update")
	defer span.End()

	m, err := fromJobEntity(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := getDB(ctx, r.client.db).Save(m).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update job: %w", err)
	}
	job.UpdatedAt = m.UpdatedAt
	return nil
}

// List 获取任务列表
func (r *JobRepository) List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.BulkJob], error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.List")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&bulkJobModel{})
	if filter != nil && filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	var models []*bulkJobModel
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*entity.BulkJob, 0, len(models))
	for _, m := range models {
		job, err := toJobEntity(m)
		if err != nil {
			return nil, fmt.Errorf("failed to decode job %s: %w", m.ID, err)
		}
		jobs = append(jobs, job)
	}
	return repository.NewPagedResult(jobs, total, pagination), nil
}

// UpdateStatus 更新任务状态
func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.UpdateStatus")
	defer span.End()

	if err := getDB(ctx, r.client.db).Model(&bulkJobModel{}).Where("id = ?", id).Update("status", string(status)).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}
