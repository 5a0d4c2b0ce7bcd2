// Package contentstore 读取待分析内容并把 AI 结果写回内容存储
package contentstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
	"seo-ai-api/pkg/tracer"
	"seo-ai-api/pkg/utils"
)

// SEO 元数据方案
const (
	SchemaRankMath = "rank_math"
	SchemaYoast    = "yoast"
)

// schemaKeys 各方案的 title/description/keyword 字段
var schemaKeys = map[string][3]string{
	SchemaRankMath: {entity.MetaRankMathTitle, entity.MetaRankMathDescription, entity.MetaRankMathKeyword},
	SchemaYoast:    {entity.MetaYoastTitle, entity.MetaYoastDescription, entity.MetaYoastKeyword},
}

// SEOFields SEO 元数据，nil 字段不写入
type SEOFields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Keyword     *string `json:"keyword,omitempty"`
}

// IsEmpty 是否没有任何字段
func (f SEOFields) IsEmpty() bool {
	return f.Title == nil && f.Description == nil && f.Keyword == nil
}

// SaveAllFields 编辑器“全部保存”的字段集合
type SaveAllFields struct {
	SEOFields
	Tags        []string `json:"tags,omitempty"`
	LatinName   string   `json:"latin_name,omitempty"`
	ContentBody string   `json:"content_body,omitempty"`
	ImageAlt    string   `json:"image_alt,omitempty"`
	VisionAlt   string   `json:"vision_alt,omitempty"`
}

// ImagePayload 发送给视觉任务的图片
type ImagePayload struct {
	AttachmentID int64
	Base64       string
	MimeType     string
}

// Adapter 内容存储适配器
type Adapter struct {
	repo       repository.ItemRepository
	cfg        config.StoreConfig
	bodyPolicy *bluemonday.Policy
	tx         repository.Transactor
}

// Option 适配器选项
type Option func(*Adapter)

// WithTransactor SaveAll 的多次写入在同一事务内完成
func WithTransactor(tx repository.Transactor) Option {
	return func(a *Adapter) {
		a.tx = tx
	}
}

// NewAdapter 创建内容存储适配器
func NewAdapter(repo repository.ItemRepository, cfg config.StoreConfig, opts ...Option) *Adapter {
	a := &Adapter{
		repo:       repo,
		cfg:        cfg,
		bodyPolicy: bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetItem 获取条目，不存在返回 ItemNotFound
func (a *Adapter) GetItem(ctx context.Context, id int64) (*entity.Item, error) {
	item, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load item")
	}
	if item == nil {
		return nil, apperrors.ErrItemNotFound.WithDetail(fmt.Sprintf("item %d", id))
	}
	return item, nil
}

// IsSpecialType 是否为特殊内容类型
func (a *Adapter) IsSpecialType(item *entity.Item) bool {
	return a.cfg.SpecialItemType != "" && item.Type == a.cfg.SpecialItemType
}

// AnalysisText 返回待分析文本：特殊类型优先使用覆盖字段，否则使用正文
func (a *Adapter) AnalysisText(item *entity.Item) string {
	if a.IsSpecialType(item) && a.cfg.AnalysisOverrideField != "" {
		if override := item.MetaValue(a.cfg.AnalysisOverrideField); strings.TrimSpace(override) != "" {
			return override
		}
	}
	return item.Body
}

// SEOStatus 条目是否已有 AI 生成的焦点关键词
func (a *Adapter) SEOStatus(item *entity.Item) string {
	for _, schema := range a.cfg.SEOSchemas {
		keys, ok := schemaKeys[schema]
		if ok && item.MetaValue(keys[2]) != "" {
			return "done"
		}
	}
	return "pending"
}

// SaveSEOMeta 写入所有启用方案的 SEO 字段，标题不同时同步条目标题
func (a *Adapter) SaveSEOMeta(ctx context.Context, id int64, fields SEOFields) error {
	if fields.IsEmpty() {
		return nil
	}
	ctx, span := tracer.Start(ctx, "contentstore.SaveSEOMeta")
	defer span.End()

	values := [3]*string{sanitizePtr(fields.Title), sanitizePtr(fields.Description), sanitizePtr(fields.Keyword)}
	for _, schema := range a.cfg.SEOSchemas {
		keys, ok := schemaKeys[schema]
		if !ok {
			continue
		}
		for i, v := range values {
			if v == nil || *v == "" {
				continue
			}
			if err := a.repo.SetMeta(ctx, id, keys[i], *v); err != nil {
				tracer.Fail(span, err)
				return persistErr(err, "failed to save seo meta")
			}
		}
	}

	if title := values[0]; title != nil && *title != "" {
		item, err := a.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if item.Title != *title {
			if err := a.repo.UpdateTitle(ctx, id, *title); err != nil {
				tracer.Fail(span, err)
				return persistErr(err, "failed to sync item title")
			}
		}
	}
	return nil
}

// SaveTags 追加标签
func (a *Adapter) SaveTags(ctx context.Context, id int64, tags []string) error {
	normalized := utils.NormalizeTags(tags)
	if len(normalized) == 0 {
		return nil
	}
	if err := a.repo.AddTags(ctx, id, normalized); err != nil {
		return persistErr(err, "failed to save tags")
	}
	return nil
}

// SaveTagString 追加分隔字符串形式的标签
func (a *Adapter) SaveTagString(ctx context.Context, id int64, tags string) error {
	return a.SaveTags(ctx, id, utils.SplitTags(tags))
}

// SaveAlternateIdentifier 特殊类型保存英文名并在别名不同时更新别名
func (a *Adapter) SaveAlternateIdentifier(ctx context.Context, id int64, latinName string) error {
	name := utils.SanitizeText(latinName)
	if name == "" {
		return nil
	}
	item, err := a.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if !a.IsSpecialType(item) {
		return nil
	}

	if a.cfg.AlternateIdentifierField != "" {
		if err := a.repo.SetMeta(ctx, id, a.cfg.AlternateIdentifierField, name); err != nil {
			return persistErr(err, "failed to save alternate identifier")
		}
	}

	slug := utils.Slugify(name)
	if slug == "" || slug == item.Slug {
		return nil
	}
	if err := a.repo.UpdateSlug(ctx, id, slug); err != nil {
		return persistErr(err, "failed to update slug")
	}
	logger.Debug(ctx, "item slug updated", "item_id", id, "slug", slug)
	return nil
}

// SaveBody 替换正文，仅保留安全 HTML 子集
func (a *Adapter) SaveBody(ctx context.Context, id int64, html string) error {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	clean := strings.TrimSpace(a.bodyPolicy.Sanitize(markdownToHTML(html)))
	if clean == "" {
		return nil
	}
	if err := a.repo.UpdateBody(ctx, id, clean); err != nil {
		return persistErr(err, "failed to save body")
	}
	return nil
}

// SaveImageAltText 写入特色图片的 Alt 文本，无图片时不做任何事
func (a *Adapter) SaveImageAltText(ctx context.Context, id int64, text string) error {
	alt := utils.SanitizeText(text)
	if alt == "" {
		return nil
	}
	item, err := a.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if !item.HasFeaturedImage() {
		return nil
	}
	if err := a.repo.SetAttachmentMeta(ctx, item.FeaturedImageID, entity.MetaAttachmentAlt, alt); err != nil {
		return persistErr(err, "failed to save image alt text")
	}
	return nil
}

// LoadImage 读取特色图片，缺失时返回 NoImage
func (a *Adapter) LoadImage(ctx context.Context, item *entity.Item) (*ImagePayload, error) {
	if !item.HasFeaturedImage() {
		return nil, apperrors.ErrNoImage
	}
	att, err := a.repo.GetAttachment(ctx, item.FeaturedImageID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load attachment")
	}
	if att == nil {
		return nil, apperrors.ErrNoImage.WithDetail("featured image attachment not found")
	}
	data, err := a.repo.ReadAttachment(ctx, att.ID)
	if err != nil || len(data) == 0 {
		return nil, apperrors.New(apperrors.CodeNoImage, "featured image file not found on server").WithError(err)
	}

	mime := att.MimeType
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return &ImagePayload{
		AttachmentID: att.ID,
		Base64:       base64.StdEncoding.EncodeToString(data),
		MimeType:     mime,
	}, nil
}

// SaveAll 一次性保存编辑器字段，Alt 优先级：vision_alt > image_alt
func (a *Adapter) SaveAll(ctx context.Context, id int64, fields SaveAllFields) error {
	if a.tx == nil {
		return a.saveAll(ctx, id, fields)
	}
	return a.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return a.saveAll(txCtx, id, fields)
	})
}

func (a *Adapter) saveAll(ctx context.Context, id int64, fields SaveAllFields) error {
	if _, err := a.GetItem(ctx, id); err != nil {
		return err
	}
	if err := a.SaveSEOMeta(ctx, id, fields.SEOFields); err != nil {
		return err
	}
	if err := a.SaveTags(ctx, id, fields.Tags); err != nil {
		return err
	}
	if err := a.SaveAlternateIdentifier(ctx, id, fields.LatinName); err != nil {
		return err
	}
	if err := a.SaveBody(ctx, id, fields.ContentBody); err != nil {
		return err
	}

	alt := fields.VisionAlt
	if strings.TrimSpace(alt) == "" {
		alt = fields.ImageAlt
	}
	return a.SaveImageAltText(ctx, id, alt)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := utils.SanitizeText(*s)
	return &v
}

func persistErr(err error, msg string) error {
	return apperrors.Wrap(err, apperrors.CodePersistenceError, msg)
}
