package redis

import (
	"context"
	"encoding/json"
	"time"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
	"seo-ai-api/pkg/logger"
)

const defaultJobCacheTTL = 30 * time.Second

// CachedJobRepository 为任务状态轮询加一层读穿缓存，写入时同步刷新
type CachedJobRepository struct {
	repository.BulkJobRepository
	cache *Cache
	ttl   time.Duration
}

// NewCachedJobRepository 创建带缓存的任务仓储
func NewCachedJobRepository(inner repository.BulkJobRepository, cache *Cache, ttl time.Duration) *CachedJobRepository {
	if ttl <= 0 {
		ttl = defaultJobCacheTTL
	}
	return &CachedJobRepository{BulkJobRepository: inner, cache: cache, ttl: ttl}
}

// BuildJobCacheKey 构建任务缓存键
func BuildJobCacheKey(id string) string {
	return "bulkjob:" + id
}

// GetByID 优先读缓存
func (r *CachedJobRepository) GetByID(ctx context.Context, id string) (*entity.BulkJob, error) {
	raw, err := r.cache.GetOrLoad(ctx, BuildJobCacheKey(id), r.ttl, func() (any, error) {
		job, err := r.BulkJobRepository.GetByID(ctx, id)
		if err != nil || job == nil {
			return nil, err
		}
		return job, nil
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var job entity.BulkJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return r.BulkJobRepository.GetByID(ctx, id)
	}
	return &job, nil
}

// Update 写库后刷新缓存
func (r *CachedJobRepository) Update(ctx context.Context, job *entity.BulkJob) error {
	if err := r.BulkJobRepository.Update(ctx, job); err != nil {
		return err
	}
	r.refresh(ctx, job)
	return nil
}

// UpdateStatus 写库后失效缓存
func (r *CachedJobRepository) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	if err := r.BulkJobRepository.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, BuildJobCacheKey(id)); err != nil {
		logger.Warn(ctx, "failed to invalidate job cache", "job_id", id, "error", err.Error())
	}
	return nil
}

func (r *CachedJobRepository) refresh(ctx context.Context, job *entity.BulkJob) {
	if err := r.cache.Set(ctx, BuildJobCacheKey(job.ID), job, r.ttl); err != nil {
		logger.Warn(ctx, "failed to refresh job cache", "job_id", job.ID, "error", err.Error())
	}
}
