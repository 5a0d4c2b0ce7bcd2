package handler

import (
	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
	"seo-ai-api/internal/interfaces/http/dto"
	apperrors "seo-ai-api/pkg/errors"
)

// JobHandler 异步批量任务处理器
type JobHandler struct {
	jobs JobManager
}

// NewJobHandler 创建任务处理器
func NewJobHandler(jobs JobManager) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// SubmitJob 提交异步批量任务
// @Summary 提交批量任务
// @Description 创建批量任务并投递到 worker，立即返回任务 ID
// @Tags Jobs
// @Accept json
// @Produce json
// @Param body body dto.BulkRequest true "条目与选项"
// @Success 202 {object} dto.Response[dto.BulkJobResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/bulk/jobs [post]
func (h *JobHandler) SubmitJob(c *gin.Context) {
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

	job, err := h.jobs.Submit(c.Request.Context(), req.ItemIDs, opts)
	if err != nil {
		respondError(c, err, "failed to submit bulk job")
		return
	}
	dto.Accepted(c, dto.ToBulkJobResponse(job, false))
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Description 返回任务状态、进度与有序结果日志
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.BulkJobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/bulk/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		respondError(c, err, "failed to get bulk job")
		return
	}
	dto.Success(c, dto.ToBulkJobResponse(job, true))
}

// ListJobs 获取任务列表
// @Summary 获取任务列表
// @Tags Jobs
// @Produce json
// @Param status query string false "任务状态"
// @Success 200 {object} dto.Response[dto.BulkJobListResponse]
// @Router /v1/bulk/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	pageReq := dto.BindPage(c)
	status := entity.JobStatus(c.Query("status"))

	result, err := h.jobs.List(c.Request.Context(), status, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list bulk jobs")
		return
	}
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToBulkJobListResponse(result.Items), meta)
}

// CancelJob 取消任务
// @Summary 取消任务
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.BulkJobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "任务已结束"
// @Router /v1/bulk/jobs/{jid} [delete]
func (h *JobHandler) CancelJob(c *gin.Context) {
	job, err := h.jobs.Cancel(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		respondError(c, err, "failed to cancel bulk job")
		return
	}
	dto.Success(c, dto.ToBulkJobResponse(job, false))
}
