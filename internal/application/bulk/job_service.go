package bulk

import (
	"context"
	"time"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
)

// Publisher 批量任务消息发布
type Publisher interface {
	PublishBulkJob(ctx context.Context, job *entity.BulkJob) error
}

// JobService 异步批量任务服务
type JobService struct {
	runner    *Runner
	repo      repository.BulkJobRepository
	publisher Publisher
}

// NewJobService 创建批量任务服务，publisher 为 nil 时在进程内执行
func NewJobService(runner *Runner, repo repository.BulkJobRepository, publisher Publisher) *JobService {
	return &JobService{runner: runner, repo: repo, publisher: publisher}
}

// Submit 创建任务并投递
func (s *JobService) Submit(ctx context.Context, itemIDs []int64, opts entity.GenerationOptions) (*entity.BulkJob, error) {
	if err := s.runner.Validate(itemIDs); err != nil {
		return nil, err
	}
	job := entity.NewBulkJob(itemIDs, opts)
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create bulk job")
	}

	if s.publisher == nil {
		go func() {
			bg := context.WithoutCancel(ctx)
			if err := s.Execute(bg, job.ID); err != nil {
				logger.Error(bg, "in-process bulk job failed", err, "job_id", job.ID)
			}
		}()
		return job, nil
	}

	if err := s.publisher.PublishBulkJob(ctx, job); err != nil {
		job.Fail("failed to enqueue job")
		_ = s.repo.Update(ctx, job)
		return nil, apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "failed to enqueue bulk job")
	}
	return job, nil
}

// Get 获取任务
func (s *JobService) Get(ctx context.Context, id string) (*entity.BulkJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load bulk job")
	}
	if job == nil {
		return nil, apperrors.ErrJobNotFound.WithDetail(id)
	}
	return job, nil
}

// List 分页获取任务
func (s *JobService) List(ctx context.Context, status entity.JobStatus, pagination repository.Pagination) (*repository.PagedResult[*entity.BulkJob], error) {
	res, err := s.repo.List(ctx, &repository.JobFilter{Status: status}, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list bulk jobs")
	}
	return res, nil
}

// Execute 执行任务，每个条目完成后持久化进度
// 已结束的任务直接返回，执行中的任务从已记录进度处续跑
func (s *JobService) Execute(ctx context.Context, jobID string) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		logger.Info(ctx, "bulk job already finished", "job_id", jobID, "status", job.Status)
		return nil
	}

	ctx = logger.WithContext(ctx, logger.BatchIDKey, job.ID)
	if job.Processed > 0 {
		logger.Info(ctx, "resuming bulk job", "job_id", job.ID, "processed", job.Processed)
	}
	job.Start()
	remaining := job.Remaining()
	if err := s.repo.Update(ctx, job); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to start bulk job")
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	_, _, runErr := s.runner.Each(runCtx, remaining, job.Options, func(_ int64, results []entity.OperationResult) {
		job.Record(results)
		if s.cancelRequested(ctx, job.ID) {
			job.Cancel()
			stop()
		}
		if err := s.repo.Update(ctx, job); err != nil {
			logger.Warn(ctx, "failed to persist bulk job progress", "job_id", job.ID, "error", err.Error())
		}
	})

	// 取消后仍需写回最终状态
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	switch {
	case job.Status == entity.JobStatusCancelled:
	case runErr != nil:
		job.Fail(runErr.Error())
	default:
		job.Complete()
	}
	if err := s.repo.Update(saveCtx, job); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to finish bulk job")
	}
	logger.Info(ctx, "bulk job finished",
		"job_id", job.ID,
		"status", job.Status,
		"processed", job.Processed,
		"failures", job.Failures,
	)
	return nil
}

// Cancel 取消任务，执行中的任务在当前条目结束后停止
func (s *JobService) Cancel(ctx context.Context, id string) (*entity.BulkJob, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status == entity.JobStatusCancelled {
		return job, nil
	}
	if job.IsTerminal() {
		return nil, apperrors.New(apperrors.CodeConflict, "bulk job already finished").WithDetail(id)
	}
	if err := s.repo.UpdateStatus(ctx, id, entity.JobStatusCancelled); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to cancel bulk job")
	}
	job.Cancel()
	logger.Info(ctx, "bulk job cancel requested", "job_id", id)
	return job, nil
}

// cancelRequested 读取最新状态判断是否已被取消
func (s *JobService) cancelRequested(ctx context.Context, id string) bool {
	latest, err := s.repo.GetByID(ctx, id)
	if err != nil || latest == nil {
		return false
	}
	return latest.Status == entity.JobStatusCancelled
}
