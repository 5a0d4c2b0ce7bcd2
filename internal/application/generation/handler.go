package generation

import (
	"context"
	"sort"

	"seo-ai-api/internal/application/contentstore"
	"seo-ai-api/internal/application/prompt"
	"seo-ai-api/internal/domain/entity"
)

// Request 发往网关的一次请求
type Request struct {
	Prompt string
	// Image 非空时走视觉通道
	Image *contentstore.ImagePayload
}

// TaskHandler 一种生成任务的实现
type TaskHandler interface {
	// Kind 任务类型
	Kind() entity.TaskKind
	// Prepare 构建请求，视觉任务无图片时返回 ErrNoImage
	Prepare(ctx context.Context, item *entity.Item, opts entity.GenerationOptions) (*Request, error)
	// Persist 按选项写回 AI 结果
	Persist(ctx context.Context, item *entity.Item, opts entity.GenerationOptions, resp entity.AIResponse) error
}

// Registry 任务处理器注册表，启动时构建后只读
type Registry struct {
	handlers map[entity.TaskKind]TaskHandler
}

// NewRegistry 创建注册表
func NewRegistry(handlers ...TaskHandler) *Registry {
	r := &Registry{handlers: make(map[entity.TaskKind]TaskHandler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// NewDefaultRegistry 注册 SEO、内容、视觉三个处理器
func NewDefaultRegistry(builder *prompt.Builder, store *contentstore.Adapter) *Registry {
	return NewRegistry(
		NewSEOHandler(builder, store),
		NewContentHandler(builder, store),
		NewVisionHandler(builder, store),
	)
}

// Register 注册处理器，同类型覆盖
func (r *Registry) Register(h TaskHandler) {
	r.handlers[h.Kind()] = h
}

// Get 获取处理器
func (r *Registry) Get(kind entity.TaskKind) (TaskHandler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds 已注册的任务类型
func (r *Registry) Kinds() []entity.TaskKind {
	kinds := make([]entity.TaskKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// SEOHandler SEO 元数据任务
type SEOHandler struct {
	builder *prompt.Builder
	store   *contentstore.Adapter
}

// NewSEOHandler 创建 SEO 处理器
func NewSEOHandler(builder *prompt.Builder, store *contentstore.Adapter) *SEOHandler {
	return &SEOHandler{builder: builder, store: store}
}

func (h *SEOHandler) Kind() entity.TaskKind { return entity.TaskSEO }

func (h *SEOHandler) Prepare(ctx context.Context, item *entity.Item, opts entity.GenerationOptions) (*Request, error) {
	return &Request{Prompt: h.builder.Build(entity.TaskSEO, item.Title, h.store.AnalysisText(item), opts)}, nil
}

// Persist 写入 SEO 字段与标签，UpdateSlug 时写入英文标识
func (h *SEOHandler) Persist(ctx context.Context, item *entity.Item, opts entity.GenerationOptions, resp entity.AIResponse) error {
	seo := resp.SEO()
	fields := contentstore.SEOFields{Title: seo.Title, Description: seo.Description, Keyword: seo.Keyword}
	if err := h.store.SaveSEOMeta(ctx, item.ID, fields); err != nil {
		return err
	}
	if err := h.store.SaveTags(ctx, item.ID, seo.Tags); err != nil {
		return err
	}
	if opts.UpdateSlug && seo.LatinName != "" {
		return h.store.SaveAlternateIdentifier(ctx, item.ID, seo.LatinName)
	}
	return nil
}

// ContentHandler 正文与 Alt 候选任务
type ContentHandler struct {
	builder *prompt.Builder
	store   *contentstore.Adapter
}

// NewContentHandler 创建内容处理器
func NewContentHandler(builder *prompt.Builder, store *contentstore.Adapter) *ContentHandler {
	return &ContentHandler{builder: builder, store: store}
}

func (h *ContentHandler) Kind() entity.TaskKind { return entity.TaskContent }

func (h *ContentHandler) Prepare(ctx context.Context, item *entity.Item, opts entity.GenerationOptions) (*Request, error) {
	return &Request{Prompt: h.builder.Build(entity.TaskContent, item.Title, h.store.AnalysisText(item), opts)}, nil
}

// Persist 正文仅在请求内容时写入，Alt 在请求内容或 Alt 时写入
func (h *ContentHandler) Persist(ctx context.Context, item *entity.Item, opts entity.GenerationOptions, resp entity.AIResponse) error {
	content := resp.Content()
	if opts.GenerateContent && content.Body != "" {
		if err := h.store.SaveBody(ctx, item.ID, content.Body); err != nil {
			return err
		}
	}
	if (opts.GenerateContent || opts.GenerateAltText) && content.ImageAlt != "" {
		return h.store.SaveImageAltText(ctx, item.ID, content.ImageAlt)
	}
	return nil
}

// VisionHandler 基于图片的 Alt 任务
type VisionHandler struct {
	builder *prompt.Builder
	store   *contentstore.Adapter
}

// NewVisionHandler 创建视觉处理器
func NewVisionHandler(builder *prompt.Builder, store *contentstore.Adapter) *VisionHandler {
	return &VisionHandler{builder: builder, store: store}
}

func (h *VisionHandler) Kind() entity.TaskKind { return entity.TaskVision }

func (h *VisionHandler) Prepare(ctx context.Context, item *entity.Item, opts entity.GenerationOptions) (*Request, error) {
	img, err := h.store.LoadImage(ctx, item)
	if err != nil {
		return nil, err
	}
	return &Request{
		Prompt: h.builder.Build(entity.TaskVision, item.Title, "", opts),
		Image:  img,
	}, nil
}

func (h *VisionHandler) Persist(ctx context.Context, item *entity.Item, opts entity.GenerationOptions, resp entity.AIResponse) error {
	alt := resp.Vision().AltText
	if alt == "" {
		return nil
	}
	return h.store.SaveImageAltText(ctx, item.ID, alt)
}
