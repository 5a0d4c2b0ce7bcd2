package repository

import (
	"context"

	"seo-ai-api/internal/domain/entity"
)

// ItemFilter 条目过滤条件
type ItemFilter struct {
	Type   string
	Status string
}

// ItemRepository 内容存储接口
// 条目不存在时 GetByID 返回 (nil, nil)
type ItemRepository interface {
	// Create 创建条目（初始化与测试数据）
	Create(ctx context.Context, item *entity.Item) error

	// GetByID 根据 ID 获取条目
	GetByID(ctx context.Context, id int64) (*entity.Item, error)

	// List 分页获取条目
	List(ctx context.Context, filter *ItemFilter, pagination Pagination) (*PagedResult[*entity.Item], error)

	// UpdateTitle 更新标题
	UpdateTitle(ctx context.Context, id int64, title string) error

	// UpdateBody 更新正文
	UpdateBody(ctx context.Context, id int64, body string) error

	// UpdateSlug 更新别名
	UpdateSlug(ctx context.Context, id int64, slug string) error

	// AddTags 追加标签，不替换已有标签
	AddTags(ctx context.Context, id int64, tags []string) error

	// GetMeta 读取元数据
	GetMeta(ctx context.Context, id int64, key string) (string, error)

	// SetMeta 写入元数据
	SetMeta(ctx context.Context, id int64, key, value string) error

	// CreateAttachment 创建附件
	CreateAttachment(ctx context.Context, att *entity.Attachment) error

	// GetAttachment 获取附件，不存在返回 (nil, nil)
	GetAttachment(ctx context.Context, id int64) (*entity.Attachment, error)

	// SetAttachmentMeta 写入附件元数据
	SetAttachmentMeta(ctx context.Context, id int64, key, value string) error

	// ReadAttachment 读取附件文件原始字节
	ReadAttachment(ctx context.Context, id int64) ([]byte, error)
}
