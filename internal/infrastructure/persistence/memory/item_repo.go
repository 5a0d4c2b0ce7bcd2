// Package memory 提供进程内存储实现，用于开发与测试
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
)

// ItemRepository 内存条目仓储
type ItemRepository struct {
	mu          sync.RWMutex
	items       map[int64]*entity.Item
	attachments map[int64]*entity.Attachment
	files       map[int64][]byte
	nextID      int64
}

// NewItemRepository 创建内存条目仓储
func NewItemRepository() *ItemRepository {
	return &ItemRepository{
		items:       make(map[int64]*entity.Item),
		attachments: make(map[int64]*entity.Attachment),
		files:       make(map[int64][]byte),
	}
}

var _ repository.ItemRepository = (*ItemRepository)(nil)

// Create 创建条目，ID 为 0 时自动分配
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == 0 {
		r.nextID++
		item.ID = r.nextID
	} else if item.ID > r.nextID {
		r.nextID = item.ID
	}
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	r.items[item.ID] = cloneItem(item)
	return nil
}

// GetByID 根据 ID 获取条目
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return cloneItem(item), nil
}

// List 分页获取条目，按更新时间倒序
func (r *ItemRepository) List(ctx context.Context, filter *repository.ItemFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Item], error) {
	r.mu.RLock()
	all := make([]*entity.Item, 0, len(r.items))
	for _, item := range r.items {
		if filter != nil && filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter != nil && filter.Status != "" && item.Status != filter.Status {
			continue
		}
		all = append(all, cloneItem(item))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	total := int64(len(all))
	start := min(pagination.Offset(), len(all))
	end := min(start+pagination.Limit(), len(all))
	return repository.NewPagedResult(all[start:end], total, pagination), nil
}

// UpdateTitle 更新标题
func (r *ItemRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	return r.mutate(id, func(item *entity.Item) { item.Title = title })
}

// UpdateBody 更新正文
func (r *ItemRepository) UpdateBody(ctx context.Context, id int64, body string) error {
	return r.mutate(id, func(item *entity.Item) { item.Body = body })
}

// UpdateSlug 更新别名
func (r *ItemRepository) UpdateSlug(ctx context.Context, id int64, slug string) error {
	return r.mutate(id, func(item *entity.Item) { item.Slug = slug })
}

// AddTags 追加标签，已存在的不重复添加
func (r *ItemRepository) AddTags(ctx context.Context, id int64, tags []string) error {
	return r.mutate(id, func(item *entity.Item) {
		for _, t := range tags {
			if !slices.Contains(item.Tags, t) {
				item.Tags = append(item.Tags, t)
			}
		}
	})
}

// GetMeta 读取元数据
func (r *ItemRepository) GetMeta(ctx context.Context, id int64, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return "", fmt.Errorf("item %d not found", id)
	}
	return item.MetaValue(key), nil
}

// SetMeta 写入元数据
func (r *ItemRepository) SetMeta(ctx context.Context, id int64, key, value string) error {
	return r.mutate(id, func(item *entity.Item) {
		if item.Meta == nil {
			item.Meta = make(map[string]string)
		}
		item.Meta[key] = value
	})
}

// CreateAttachment 创建附件
func (r *ItemRepository) CreateAttachment(ctx context.Context, att *entity.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if att.ID == 0 {
		r.nextID++
		att.ID = r.nextID
	} else if att.ID > r.nextID {
		r.nextID = att.ID
	}
	att.CreatedAt = time.Now()
	cp := *att
	cp.Meta = maps.Clone(att.Meta)
	r.attachments[att.ID] = &cp
	return nil
}

// PutFile 设置附件文件内容
func (r *ItemRepository) PutFile(attachmentID int64, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[attachmentID] = slices.Clone(data)
}

// GetAttachment 获取附件
func (r *ItemRepository) GetAttachment(ctx context.Context, id int64) (*entity.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	att, ok := r.attachments[id]
	if !ok {
		return nil, nil
	}
	cp := *att
	cp.Meta = maps.Clone(att.Meta)
	return &cp, nil
}

// SetAttachmentMeta 写入附件元数据
func (r *ItemRepository) SetAttachmentMeta(ctx context.Context, id int64, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	att, ok := r.attachments[id]
	if !ok {
		return fmt.Errorf("attachment %d not found", id)
	}
	if att.Meta == nil {
		att.Meta = make(map[string]string)
	}
	att.Meta[key] = value
	return nil
}

// ReadAttachment 读取附件文件
func (r *ItemRepository) ReadAttachment(ctx context.Context, id int64) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.files[id]
	if !ok {
		return nil, fmt.Errorf("file for attachment %d not found", id)
	}
	return slices.Clone(data), nil
}

func (r *ItemRepository) mutate(id int64, fn func(item *entity.Item)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("item %d not found", id)
	}
	fn(item)
	item.UpdatedAt = time.Now()
	return nil
}

func cloneItem(item *entity.Item) *entity.Item {
	cp := *item
	cp.Tags = slices.Clone(item.Tags)
	cp.Meta = maps.Clone(item.Meta)
	return &cp
}
