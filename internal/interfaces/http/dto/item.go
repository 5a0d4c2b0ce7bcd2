package dto

import (
	"time"

	"seo-ai-api/internal/application/contentstore"
	"seo-ai-api/internal/domain/entity"
)

// ItemResponse 条目列表项
type ItemResponse struct {
	ID              int64     `json:"id"`
	Type            string    `json:"type"`
	Status          string    `json:"status,omitempty"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Tags            []string  `json:"tags"`
	FeaturedImageID int64     `json:"featured_image_id,omitempty"`
	SEOStatus       string    `json:"seo_status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItemListResponse 条目列表响应
type ItemListResponse struct {
	Items []*ItemResponse `json:"items"`
}

// ToItemResponse 将领域实体转换为响应 DTO
func ToItemResponse(item *entity.Item, seoStatus string) *ItemResponse {
	if item == nil {
		return nil
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return &ItemResponse{
		ID:              item.ID,
		Type:            item.Type,
		Status:          item.Status,
		Title:           item.Title,
		Slug:            item.Slug,
		Tags:            tags,
		FeaturedImageID: item.FeaturedImageID,
		SEOStatus:       seoStatus,
		UpdatedAt:       item.UpdatedAt,
	}
}

// GenerateResponse 单条目生成结果，AI 原始字段供编辑器填充
type GenerateResponse struct {
	ItemID int64             `json:"item_id"`
	Task   entity.TaskKind   `json:"task"`
	Fields entity.AIResponse `json:"fields"`
}

// SaveFieldsResponse 保存结果
type SaveFieldsResponse struct {
	ItemID int64 `json:"item_id"`
	Saved  bool  `json:"saved"`
}

// ToSaveAllFields 转换为存储层字段
func (r *SaveFieldsRequest) ToSaveAllFields() contentstore.SaveAllFields {
	return contentstore.SaveAllFields{
		SEOFields: contentstore.SEOFields{
			Title:       r.Title,
			Description: r.Description,
			Keyword:     r.Keyword,
		},
		Tags:        []string(r.Tags),
		LatinName:   r.LatinName,
		ContentBody: r.ContentBody,
		ImageAlt:    r.ImageAlt,
		VisionAlt:   r.VisionAlt,
	}
}
