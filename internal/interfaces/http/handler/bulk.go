package handler

import (
	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/interfaces/http/dto"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
)

// BulkHandler 同步批量处理器
type BulkHandler struct {
	runner BatchRunner
}

// NewBulkHandler 创建同步批量处理器
func NewBulkHandler(runner BatchRunner) *BulkHandler {
	return &BulkHandler{runner: runner}
}

// RunBulk 同步执行批量生成并写回存储
// @Summary 同步批量生成
// @Description 按顺序处理条目，Accept 为 application/x-ndjson 时逐行输出进度
// @Tags Bulk
// @Accept json
// @Produce json
// @Param body body dto.BulkRequest true "条目与选项"
// @Success 200 {object} dto.Response[dto.BulkRunResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/bulk [post]
func (h *BulkHandler) RunBulk(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	opts := req.ToOptions()
	if !opts.Any() {
		dto.AppError(c, apperrors.ErrNothingSelected)
		return
	}
	if err := h.runner.Validate(req.ItemIDs); err != nil {
		respondError(c, err, "invalid bulk request")
		return
	}

	if wantsStream(c) {
		w := newNDJSONWriter(c)
		if err := h.runner.Stream(ctx, req.ItemIDs, opts, w.Emit); err != nil {
			logger.Warn(ctx, "bulk stream interrupted", "error", err.Error())
		}
		return
	}

	var results []entity.OperationResult
	if err := h.runner.Stream(ctx, req.ItemIDs, opts, func(r entity.OperationResult) {
		results = append(results, r)
	}); err != nil {
		logger.Warn(ctx, "bulk run interrupted", "error", err.Error())
	}
	dto.Success(c, dto.NewBulkRunResponse(results))
}
