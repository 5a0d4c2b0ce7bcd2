// Package generation 编排单个条目上的生成任务
package generation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"seo-ai-api/internal/application/contentstore"
	"seo-ai-api/internal/domain/entity"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
	"seo-ai-api/pkg/metrics"
	"seo-ai-api/pkg/tracer"
)

// skipReasonNotInstalled 处理器未注册时的跳过原因
const skipReasonNotInstalled = "module not installed"

// Gateway AI 网关
type Gateway interface {
	SendText(ctx context.Context, fullPrompt string) (entity.AIResponse, error)
	SendVision(ctx context.Context, taskPrompt, imageBase64, mimeType string) (entity.AIResponse, error)
}

// Orchestrator 生成任务编排器
type Orchestrator struct {
	registry *Registry
	gateway  Gateway
	store    *contentstore.Adapter
	group    singleflight.Group
}

// NewOrchestrator 创建编排器
func NewOrchestrator(registry *Registry, gateway Gateway, store *contentstore.Adapter) *Orchestrator {
	return &Orchestrator{registry: registry, gateway: gateway, store: store}
}

// Plan 根据选项返回子任务顺序
func (o *Orchestrator) Plan(opts entity.GenerationOptions) []entity.TaskKind {
	return opts.Plan()
}

// RunTask 执行一个子任务并写回结果，错误以结果形式返回
func (o *Orchestrator) RunTask(ctx context.Context, kind entity.TaskKind, itemID int64, opts entity.GenerationOptions) entity.OperationResult {
	ctx = logger.WithContext(ctx, logger.ItemIDKey, itemID)
	ctx = logger.WithContext(ctx, logger.TaskKey, string(kind))
	ctx, span := tracer.Start(ctx, "generation.RunTask")
	span.SetAttributes(attribute.String("task", string(kind)), attribute.Int64("item_id", itemID))
	defer span.End()

	start := time.Now()
	result := o.runTask(ctx, kind, itemID, opts)
	result.DurationMs = time.Since(start).Milliseconds()

	metrics.GenerationTotal.WithLabelValues(string(kind), string(result.Status)).Inc()
	metrics.GenerationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	switch result.Status {
	case entity.ResultFailure:
		span.SetAttributes(attribute.String("stage", string(result.Stage)))
		tracer.Fail(span, fmt.Errorf("%s: %s", result.ErrorCode, result.Message))
		logger.Warn(ctx, "generation task failed",
			"stage", result.Stage,
			"error_code", result.ErrorCode,
			"error", result.Message,
		)
	case entity.ResultSkipped:
		logger.Info(ctx, "generation task skipped", "reason", result.Message)
	default:
		logger.Info(ctx, "generation task succeeded", "duration_ms", result.DurationMs)
	}
	return result
}

func (o *Orchestrator) runTask(ctx context.Context, kind entity.TaskKind, itemID int64, opts entity.GenerationOptions) entity.OperationResult {
	handler, ok := o.registry.Get(kind)
	if !ok {
		return entity.NewSkippedResult(itemID, kind, skipReasonNotInstalled)
	}

	item, err := o.store.GetItem(ctx, itemID)
	if err != nil {
		return failure(itemID, kind, entity.StageNotStarted, err)
	}

	req, err := handler.Prepare(ctx, item, opts)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNoImage {
			return entity.NewSkippedResult(itemID, kind, skipMessage(err))
		}
		return failure(itemID, kind, entity.StageContextLoaded, err)
	}

	resp, err := o.send(ctx, req)
	if err != nil {
		return failure(itemID, kind, entity.StageGatewayFailed, err)
	}

	if err := handler.Persist(ctx, item, opts, resp); err != nil {
		return failure(itemID, kind, entity.StagePersistFailed, err)
	}
	return entity.NewSuccessResult(itemID, kind)
}

// Generate 执行任务但不写回，返回 AI 原始结果
// 相同条目、任务与选项的并发请求合并为一次网关调用
func (o *Orchestrator) Generate(ctx context.Context, kind entity.TaskKind, itemID int64, opts entity.GenerationOptions) (entity.AIResponse, error) {
	handler, ok := o.registry.Get(kind)
	if !ok {
		return nil, apperrors.New(apperrors.CodeSkipped, skipReasonNotInstalled)
	}

	key := fmt.Sprintf("%s:%d:%t:%t:%t:%t:%t", kind, itemID,
		opts.GenerateSEO, opts.GenerateContent, opts.GenerateAltText, opts.UpdateSlug, opts.StrictTitleMode)
	// 合并调用与单个调用方的取消解耦，调用方取消只影响自身
	flightCtx := context.WithoutCancel(ctx)
	ch := o.group.DoChan(key, func() (any, error) {
		ctx, span := tracer.Start(flightCtx, "generation.Generate")
		span.SetAttributes(attribute.String("task", string(kind)), attribute.Int64("item_id", itemID))
		defer span.End()

		item, err := o.store.GetItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		req, err := handler.Prepare(ctx, item, opts)
		if err != nil {
			return nil, err
		}
		resp, err := o.send(ctx, req)
		if err != nil {
			tracer.Fail(span, err)
			return nil, err
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Debug(ctx, "generation request coalesced", "task", kind, "item_id", itemID)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(entity.AIResponse), nil
	}
}

func (o *Orchestrator) send(ctx context.Context, req *Request) (entity.AIResponse, error) {
	if req.Image != nil {
		return o.gateway.SendVision(ctx, req.Prompt, req.Image.Base64, req.Image.MimeType)
	}
	return o.gateway.SendText(ctx, req.Prompt)
}

func failure(itemID int64, kind entity.TaskKind, stage entity.Stage, err error) entity.OperationResult {
	appErr := apperrors.AsAppError(err)
	return entity.NewFailureResult(itemID, kind, stage, appErr.Code.Name(), appErr.Message)
}

func skipMessage(err error) string {
	appErr := apperrors.AsAppError(err)
	if appErr.Detail != "" {
		return appErr.Detail
	}
	return appErr.Message
}
