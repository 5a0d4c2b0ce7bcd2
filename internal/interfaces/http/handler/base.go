// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/application/contentstore"
	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
	"seo-ai-api/internal/infrastructure/gateway"
	"seo-ai-api/internal/interfaces/http/dto"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
)

// Generator 单条目生成
type Generator interface {
	Generate(ctx context.Context, kind entity.TaskKind, itemID int64, opts entity.GenerationOptions) (entity.AIResponse, error)
}

// FieldStore 编辑器字段读写
type FieldStore interface {
	SaveAll(ctx context.Context, id int64, fields contentstore.SaveAllFields) error
	SEOStatus(item *entity.Item) string
}

// BatchRunner 同步批量执行
type BatchRunner interface {
	Validate(itemIDs []int64) error
	Stream(ctx context.Context, itemIDs []int64, opts entity.GenerationOptions, emit func(entity.OperationResult)) error
}

// JobManager 异步批量任务
type JobManager interface {
	Submit(ctx context.Context, itemIDs []int64, opts entity.GenerationOptions) (*entity.BulkJob, error)
	Get(ctx context.Context, id string) (*entity.BulkJob, error)
	List(ctx context.Context, status entity.JobStatus, pagination repository.Pagination) (*repository.PagedResult[*entity.BulkJob], error)
	Cancel(ctx context.Context, id string) (*entity.BulkJob, error)
}

// ConnectionProber 网关连接测试
type ConnectionProber interface {
	TestConnection(ctx context.Context, endpoint, apiKey string) (*gateway.ProbeResult, error)
}

// respondError 输出应用错误，5xx 记录错误日志
func respondError(c *gin.Context, err error, msg string) {
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, err, "error_code", appErr.Code.Name())
	}
	dto.AppError(c, appErr)
}
