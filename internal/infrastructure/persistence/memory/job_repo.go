package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
)

// JobRepository 内存批量任务仓储
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*entity.BulkJob
}

// NewJobRepository 创建内存批量任务仓储
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[string]*entity.BulkJob)}
}

var _ repository.BulkJobRepository = (*JobRepository)(nil)

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.BulkJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.UpdatedAt = time.Now()
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.BulkJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return cloneJob(job), nil
}

// Update 更新任务
func (r *JobRepository) Update(ctx context.Context, job *entity.BulkJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return fmt.Errorf("bulk job %s not found", job.ID)
	}
	job.UpdatedAt = time.Now()
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

// List 获取任务列表，按创建时间倒序
func (r *JobRepository) List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.BulkJob], error) {
	r.mu.RLock()
	all := make([]*entity.BulkJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if filter != nil && filter.Status != "" && job.Status != filter.Status {
			continue
		}
		all = append(all, cloneJob(job))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := min(pagination.Offset(), len(all))
	end := min(start+pagination.Limit(), len(all))
	return repository.NewPagedResult(all[start:end], total, pagination), nil
}

// UpdateStatus 更新任务状态
func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("bulk job %s not found", id)
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	return nil
}

func cloneJob(job *entity.BulkJob) *entity.BulkJob {
	cp := *job
	cp.ItemIDs = slices.Clone(job.ItemIDs)
	cp.Results = slices.Clone(job.Results)
	return &cp
}
