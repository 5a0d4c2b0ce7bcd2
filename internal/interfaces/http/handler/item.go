package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
	"seo-ai-api/internal/interfaces/http/dto"
	"seo-ai-api/pkg/logger"
)

// ItemHandler 条目处理器
type ItemHandler struct {
	generator Generator
	store     FieldStore
	items     repository.ItemRepository
}

// NewItemHandler 创建条目处理器
func NewItemHandler(generator Generator, store FieldStore, items repository.ItemRepository) *ItemHandler {
	return &ItemHandler{
		generator: generator,
		store:     store,
		items:     items,
	}
}

// ListItems 获取条目列表
// @Summary 获取条目列表
// @Description 按类型分页列出条目及其 SEO 状态
// @Tags Items
// @Produce json
// @Param type query string false "内容类型"
// @Param status query string false "发布状态"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.ItemListResponse]
// @Router /v1/items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)

	filter := &repository.ItemFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	result, err := h.items.List(ctx, filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list items", err)
		dto.InternalError(c, "failed to list items")
		return
	}

	resp := &dto.ItemListResponse{Items: make([]*dto.ItemResponse, 0, len(result.Items))}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, dto.ToItemResponse(item, h.store.SEOStatus(item)))
	}
	dto.SuccessWithPage(c, resp, dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// GenerateSEO 生成 SEO 字段
// @Summary 生成 SEO 字段
// @Description 返回 AI 生成的标题、描述、关键词与标签，不写入存储
// @Tags Items
// @Accept json
// @Produce json
// @Param id path int true "条目 ID"
// @Param body body dto.GenerateRequest false "生成选项"
// @Success 200 {object} dto.Response[dto.GenerateResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/items/{id}/seo [post]
func (h *ItemHandler) GenerateSEO(c *gin.Context) {
	h.generate(c, entity.TaskSEO)
}

// GenerateContent 生成正文
// @Summary 生成正文
// @Tags Items
// @Router /v1/items/{id}/content [post]
func (h *ItemHandler) GenerateContent(c *gin.Context) {
	h.generate(c, entity.TaskContent)
}

// GenerateVision 分析特色图片
// @Summary 分析特色图片
// @Tags Items
// @Router /v1/items/{id}/vision [post]
func (h *ItemHandler) GenerateVision(c *gin.Context) {
	h.generate(c, entity.TaskVision)
}

func (h *ItemHandler) generate(c *gin.Context, kind entity.TaskKind) {
	ctx := c.Request.Context()
	itemID, err := dto.BindItemID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	fields, err := h.generator.Generate(ctx, kind, itemID, req.ToOptions())
	if err != nil {
		respondError(c, err, "failed to generate")
		return
	}
	dto.Success(c, &dto.GenerateResponse{
		ItemID: itemID,
		Task:   kind,
		Fields: fields,
	})
}

// SaveFields 保存编辑器字段
// @Summary 保存编辑器字段
// @Description 一次写入 SEO 元数据、标签、英文名、正文与图片 Alt
// @Tags Items
// @Accept json
// @Produce json
// @Param id path int true "条目 ID"
// @Param body body dto.SaveFieldsRequest true "字段"
// @Success 200 {object} dto.Response[dto.SaveFieldsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/items/{id}/fields [put]
func (h *ItemHandler) SaveFields(c *gin.Context) {
	ctx := c.Request.Context()
	itemID, err := dto.BindItemID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	var req dto.SaveFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.store.SaveAll(ctx, itemID, req.ToSaveAllFields()); err != nil {
		respondError(c, err, "failed to save fields")
		return
	}
	dto.Success(c, &dto.SaveFieldsResponse{ItemID: itemID, Saved: true})
}
