package entity

import (
	"fmt"
	"strconv"

	"seo-ai-api/pkg/utils"
)

// AIResponse 网关返回并解码后的 JSON 对象
type AIResponse map[string]any

// String 读取字符串字段，数字与布尔值转为字符串，缺失返回空串
func (r AIResponse) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Has 字段是否存在且非 null
func (r AIResponse) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// StringPtr 字段存在时返回指针，用于“只写非空字段”的语义
func (r AIResponse) StringPtr(key string) *string {
	if !r.Has(key) {
		return nil
	}
	s := r.String(key)
	return &s
}

// Strings 读取字符串数组字段，兼容逗号分隔的字符串
func (r AIResponse) Strings(key string) []string {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else if e != nil {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case []string:
		return t
	case string:
		return utils.SplitTags(t)
	default:
		return nil
	}
}

// SEOResult SEO 任务结果
type SEOResult struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Keyword     *string  `json:"keyword,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	LatinName   string   `json:"latin_name,omitempty"`
}

// SEO 视为 SEO 任务结果
func (r AIResponse) SEO() SEOResult {
	return SEOResult{
		Title:       r.StringPtr("title"),
		Description: r.StringPtr("description"),
		Keyword:     r.StringPtr("keyword"),
		Tags:        r.Strings("tags"),
		LatinName:   r.String("latin_name"),
	}
}

// ContentResult 内容任务结果
type ContentResult struct {
	Body     string `json:"content_body"`
	ImageAlt string `json:"image_alt"`
}

// Content 视为内容任务结果
func (r AIResponse) Content() ContentResult {
	return ContentResult{
		Body:     r.String("content_body"),
		ImageAlt: r.String("image_alt"),
	}
}

// VisionResult 视觉分析结果
type VisionResult struct {
	ArtStyle   string   `json:"art_style"`
	VisualTags []string `json:"visual_tags"`
	AltText    string   `json:"alt_text"`
}

// Vision 视为视觉分析结果
func (r AIResponse) Vision() VisionResult {
	return VisionResult{
		ArtStyle:   r.String("art_style"),
		VisualTags: r.Strings("visual_tags"),
		AltText:    r.String("alt_text"),
	}
}
