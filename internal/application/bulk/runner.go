// Package bulk 顺序批量执行生成任务
package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
	"seo-ai-api/pkg/metrics"
	"seo-ai-api/pkg/tracer"
)

const (
	rateLimitKey     = "ratelimit:bulk:gateway"
	defaultLimitWait = time.Second
)

// TaskRunner 单个子任务执行器
type TaskRunner interface {
	RunTask(ctx context.Context, kind entity.TaskKind, itemID int64, opts entity.GenerationOptions) entity.OperationResult
}

// RateLimiter 跨进程限流器
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ItemFunc 每个条目处理完成后回调
type ItemFunc func(itemID int64, results []entity.OperationResult)

// Runner 批量执行器，同一批次内严格按调用方顺序串行
type Runner struct {
	tasks   TaskRunner
	cfg     config.BulkConfig
	limiter RateLimiter
}

// Option 执行器选项
type Option func(*Runner)

// WithRateLimiter 启用网关调用限流
func WithRateLimiter(l RateLimiter) Option {
	return func(r *Runner) {
		r.limiter = l
	}
}

// NewRunner 创建批量执行器
func NewRunner(tasks TaskRunner, cfg config.BulkConfig, opts ...Option) *Runner {
	r := &Runner{tasks: tasks, cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Limit <= 0 {
		r.limiter = nil
	}
	return r
}

// Validate 校验批次条目
func (r *Runner) Validate(itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return apperrors.ErrInvalidParam.WithDetail("ids must not be empty")
	}
	if r.cfg.MaxItems > 0 && len(itemIDs) > r.cfg.MaxItems {
		return apperrors.Newf(apperrors.CodeInvalidParam, "batch exceeds %d items", r.cfg.MaxItems)
	}
	for _, id := range itemIDs {
		if id <= 0 {
			return apperrors.Newf(apperrors.CodeInvalidParam, "invalid item id %d", id)
		}
	}
	return nil
}

// RunBatch 执行批次并返回全部子任务结果（不含结束标记）
func (r *Runner) RunBatch(ctx context.Context, itemIDs []int64, opts entity.GenerationOptions) []entity.OperationResult {
	var out []entity.OperationResult
	_, _, _ = r.Each(ctx, itemIDs, opts, func(_ int64, results []entity.OperationResult) {
		out = append(out, results...)
	})
	return out
}

// Stream 逐条回调子任务结果，最后回调一个结束标记
// 批次被取消时返回 ctx 错误，已完成的结果仍会回调
func (r *Runner) Stream(ctx context.Context, itemIDs []int64, opts entity.GenerationOptions, emit func(entity.OperationResult)) error {
	total, failed, err := r.Each(ctx, itemIDs, opts, func(_ int64, results []entity.OperationResult) {
		for _, res := range results {
			emit(res)
		}
	})
	emit(entity.NewDoneMarker(total, failed))
	return err
}

// Each 串行处理条目，每个条目完成后回调 onItem
// 返回子任务结果总数与失败数
func (r *Runner) Each(ctx context.Context, itemIDs []int64, opts entity.GenerationOptions, onItem ItemFunc) (total, failed int, err error) {
	if ctx.Value(logger.BatchIDKey) == nil {
		ctx = logger.WithContext(ctx, logger.BatchIDKey, uuid.NewString())
	}
	ctx, span := tracer.Start(ctx, "bulk.Run")
	span.SetAttributes(attribute.Int("bulk.items", len(itemIDs)))
	defer span.End()

	metrics.BulkActiveBatches.Inc()
	defer metrics.BulkActiveBatches.Dec()

	start := time.Now()
	logger.Info(ctx, "bulk batch started", "items", len(itemIDs), "plan", opts.Plan())

	for i, id := range itemIDs {
		if err = ctx.Err(); err != nil {
			break
		}

		results := r.RunItem(ctx, id, opts)
		for _, res := range results {
			if res.Failed() {
				failed++
			}
		}
		total += len(results)
		onItem(id, results)

		if i < len(itemIDs)-1 && r.cfg.Throttle > 0 {
			if err = sleep(ctx, r.cfg.Throttle); err != nil {
				break
			}
		}
	}

	if err != nil {
		tracer.Fail(span, err)
		logger.Warn(ctx, "bulk batch interrupted", "error", err.Error(), "results", total, "failed", failed)
		return total, failed, err
	}
	logger.Info(ctx, "bulk batch finished",
		"results", total,
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return total, failed, nil
}

// RunItem 依次执行条目的子任务，条目内 panic 转为失败结果
// 条目不存在时跳过其余子任务
func (r *Runner) RunItem(ctx context.Context, itemID int64, opts entity.GenerationOptions) (results []entity.OperationResult) {
	ctx = logger.WithContext(ctx, logger.ItemIDKey, itemID)
	var current entity.TaskKind

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "bulk item panicked", fmt.Errorf("%v", rec), "task", current)
			results = append(results, entity.NewFailureResult(itemID, current, entity.StageNotStarted,
				apperrors.CodeInternalError.Name(), fmt.Sprintf("panic: %v", rec)))
		}
		metrics.BulkItemsTotal.WithLabelValues(itemStatus(results)).Inc()
	}()

	for _, kind := range opts.Plan() {
		current = kind
		if err := r.wait(ctx); err != nil {
			results = append(results, entity.NewFailureResult(itemID, kind, entity.StageNotStarted,
				apperrors.CodeOf(err).Name(), err.Error()))
			return results
		}

		res := r.tasks.RunTask(ctx, kind, itemID, opts)
		results = append(results, res)
		if res.ErrorCode == apperrors.CodeItemNotFound.Name() {
			break
		}
	}
	return results
}

// wait 限流器拒绝时等待后重试，限流器故障时放行
func (r *Runner) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	pause := r.cfg.RateLimit.Wait
	if pause <= 0 {
		pause = defaultLimitWait
	}
	for {
		ok, err := r.limiter.Allow(ctx, rateLimitKey, r.cfg.RateLimit.Limit, r.cfg.RateLimit.Window)
		if err != nil {
			logger.Warn(ctx, "bulk rate limiter unavailable", "error", err.Error())
			return nil
		}
		if ok {
			return nil
		}
		if err := sleep(ctx, pause); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func itemStatus(results []entity.OperationResult) string {
	for _, res := range results {
		if res.Failed() {
			return string(entity.ResultFailure)
		}
	}
	return string(entity.ResultSuccess)
}
