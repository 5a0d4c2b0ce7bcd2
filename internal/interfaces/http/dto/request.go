// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/pkg/utils"
)

// PageRequest 分页请求参数
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize 规范化分页参数
func (r *PageRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 20
	}
	if r.PageSize > 100 {
		r.PageSize = 100
	}
}

// BindPage 从 Gin Context 绑定分页参数
func BindPage(c *gin.Context) PageRequest {
	req := PageRequest{
		Page:     parseIntWithDefault(c.Query("page"), 1),
		PageSize: parseIntWithDefault(c.Query("page_size"), 20),
	}
	req.Normalize()
	return req
}

// parseIntWithDefault 解析整数，失败时返回默认值
func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// BindItemID 从 URI 绑定条目 ID
func BindItemID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", c.Param("id"))
	}
	return id, nil
}

// BindJobID 从 URI 绑定任务 ID
func BindJobID(c *gin.Context) string {
	return c.Param("jid")
}

// OptionsRequest 生成选项，字段名与编辑器表单一致
type OptionsRequest struct {
	DoSEO      bool `json:"do_seo"`
	DoContent  bool `json:"do_content"`
	DoAlt      bool `json:"do_alt"`
	DoSlug     bool `json:"do_slug"`
	StrictMode bool `json:"strict_mode"`
}

// ToOptions 转换为领域选项
func (r OptionsRequest) ToOptions() entity.GenerationOptions {
	return entity.GenerationOptions{
		GenerateSEO:     r.DoSEO,
		GenerateContent: r.DoContent,
		GenerateAltText: r.DoAlt,
		UpdateSlug:      r.DoSlug,
		StrictTitleMode: r.StrictMode,
	}
}

// GenerateRequest 单条目生成请求，请求体可省略
type GenerateRequest struct {
	OptionsRequest
}

// BulkRequest 批量生成请求
type BulkRequest struct {
	ItemIDs []int64 `json:"item_ids" binding:"required"`
	OptionsRequest
}

// TagList 标签列表，兼容 JSON 数组与逗号分隔字符串
type TagList []string

// UnmarshalJSON 实现 json.Unmarshaler
func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = utils.SplitTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings: %w", err)
	}
	*t = list
	return nil
}

// SaveFieldsRequest 编辑器“全部保存”请求
type SaveFieldsRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Keyword     *string `json:"keyword"`
	Tags        TagList `json:"tags"`
	LatinName   string  `json:"latin_name"`
	ContentBody string  `json:"content_body"`
	ImageAlt    string  `json:"image_alt"`
	VisionAlt   string  `json:"vision_alt"`
}

// GatewayTestRequest 连接测试请求，使用未保存的凭据
type GatewayTestRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
}
