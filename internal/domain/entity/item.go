// Package entity 定义领域实体
package entity

import "time"

// Item 内容条目（文章、页面、提示词等）
type Item struct {
	ID              int64             `json:"id"`
	Type            string            `json:"type"`
	Status          string            `json:"status,omitempty"`
	Title           string            `json:"title"`
	Body            string            `json:"body"`
	Slug            string            `json:"slug"`
	Tags            []string          `json:"tags"`
	FeaturedImageID int64             `json:"featured_image_id,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// MetaValue 读取元数据字段，不存在返回空字符串
func (i *Item) MetaValue(key string) string {
	if i.Meta == nil {
		return ""
	}
	return i.Meta[key]
}

// HasFeaturedImage 是否关联了特色图片
func (i *Item) HasFeaturedImage() bool {
	return i.FeaturedImageID > 0
}

// Attachment 附件（图片）
type Attachment struct {
	ID        int64             `json:"id"`
	FilePath  string            `json:"file_path"`
	MimeType  string            `json:"mime_type"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// 元数据键
const (
	MetaAttachmentAlt = "_wp_attachment_image_alt"

	MetaRankMathTitle       = "rank_math_title"
	MetaRankMathDescription = "rank_math_description"
	MetaRankMathKeyword     = "rank_math_focus_keyword"

	MetaYoastTitle       = "_yoast_wpseo_title"
	MetaYoastDescription = "_yoast_wpseo_metadesc"
	MetaYoastKeyword     = "_yoast_wpseo_focuskw"
)
