package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
)

// ItemRepository 条目仓储实现
type ItemRepository struct {
	client     *Client
	uploadsDir string
}

// NewItemRepository 创建条目仓储，附件路径相对 uploadsDir 解析
func NewItemRepository(client *Client, uploadsDir string) *ItemRepository {
	return &ItemRepository{client: client, uploadsDir: uploadsDir}
}

var _ repository.ItemRepository = (*ItemRepository)(nil)

// Create 创建条目及其元数据
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.Create")
	defer span.End()

	return getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		m := fromItemEntity(item)
		if err := tx.Create(m).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create item: %w", err)
		}
		item.ID, item.CreatedAt, item.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
		for k, v := range item.Meta {
			if err := upsertMeta(tx, &itemMetaModel{ItemID: m.ID, Key: k, Value: v}, "item_id"); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据 ID 获取条目
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var m itemModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	var meta []itemMetaModel
	if err := db.Where("item_id = ?", id).Find(&meta).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get item meta: %w", err)
	}
	return toItemEntity(&m, meta), nil
}

// List 分页获取条目（不含元数据）
func (r *ItemRepository) List(ctx context.Context, filter *repository.ItemFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Item], error) {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.List")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&itemModel{})
	if filter != nil {
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	var models []*itemModel
	if err := query.Order("updated_at DESC, id DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*entity.Item, 0, len(models))
	for _, m := range models {
		items = append(items, toItemEntity(m, nil))
	}
	return repository.NewPagedResult(items, total, pagination), nil
}

// UpdateTitle 更新标题
func (r *ItemRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	return r.updateColumn(ctx, id, "title", title)
}

// UpdateBody 更新正文
func (r *ItemRepository) UpdateBody(ctx context.Context, id int64, body string) error {
	return r.updateColumn(ctx, id, "body", body)
}

// UpdateSlug 更新别名
func (r *ItemRepository) UpdateSlug(ctx context.Context, id int64, slug string) error {
	return r.updateColumn(ctx, id, "slug", slug)
}

// AddTags 追加标签，行锁保证并发追加不丢失
func (r *ItemRepository) AddTags(ctx context.Context, id int64, tags []string) error {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.AddTags")
	defer span.End()

	return getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		var m itemModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "tags").First(&m, "id = ?", id).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to lock item: %w", err)
		}
		merged := []string(m.Tags)
		for _, t := range tags {
			if !slices.Contains(merged, t) {
				merged = append(merged, t)
			}
		}
		if len(merged) == len(m.Tags) {
			return nil
		}
		if err := tx.Model(&itemModel{}).Where("id = ?", id).Update("tags", pq.StringArray(merged)).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to add tags: %w", err)
		}
		return nil
	})
}

// GetMeta 读取元数据
func (r *ItemRepository) GetMeta(ctx context.Context, id int64, key string) (string, error) {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.GetMeta")
	defer span.End()

	var m itemMetaModel
	err := getDB(ctx, r.client.db).First(&m, "item_id = ? AND key = ?", id, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return m.Value, nil
}

// SetMeta 写入元数据
func (r *ItemRepository) SetMeta(ctx context.Context, id int64, key, value string) error {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.SetMeta")
	defer span.End()

	if err := upsertMeta(getDB(ctx, r.client.db), &itemMetaModel{ItemID: id, Key: key, Value: value}, "item_id"); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CreateAttachment 创建附件
func (r *ItemRepository) CreateAttachment(ctx context.Context, att *entity.Attachment) error {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.CreateAttachment")
	defer span.End()

	return getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		m := &attachmentModel{ID: att.ID, FilePath: att.FilePath, MimeType: att.MimeType}
		if err := tx.Create(m).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create attachment: %w", err)
		}
		att.ID, att.CreatedAt = m.ID, m.CreatedAt
		for k, v := range att.Meta {
			if err := upsertMeta(tx, &attachmentMetaModel{AttachmentID: m.ID, Key: k, Value: v}, "attachment_id"); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAttachment 获取附件
func (r *ItemRepository) GetAttachment(ctx context.Context, id int64) (*entity.Attachment, error) {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.GetAttachment")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var m attachmentModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	var meta []attachmentMetaModel
	if err := db.Where("attachment_id = ?", id).Find(&meta).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get attachment meta: %w", err)
	}

	att := &entity.Attachment{ID: m.ID, FilePath: m.FilePath, MimeType: m.MimeType, CreatedAt: m.CreatedAt}
	if len(meta) > 0 {
		att.Meta = make(map[string]string, len(meta))
		for _, kv := range meta {
			att.Meta[kv.Key] = kv.Value
		}
	}
	return att, nil
}

// SetAttachmentMeta 写入附件元数据
func (r *ItemRepository) SetAttachmentMeta(ctx context.Context, id int64, key, value string) error {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.SetAttachmentMeta")
	defer span.End()

	if err := upsertMeta(getDB(ctx, r.client.db), &attachmentMetaModel{AttachmentID: id, Key: key, Value: value}, "attachment_id"); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// ReadAttachment 从上传目录读取附件文件
func (r *ItemRepository) ReadAttachment(ctx context.Context, id int64) ([]byte, error) {
	att, err := r.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if att == nil || att.FilePath == "" {
		return nil, fmt.Errorf("attachment %d has no file", id)
	}
	path := att.FilePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.uploadsDir, filepath.Clean("/"+path))
	}
	return os.ReadFile(path)
}

func (r *ItemRepository) updateColumn(ctx context.Context, id int64, column string, value any) error {
	ctx, span := tracer.Start(ctx, "postgres.ItemRepository.Update")
	defer span.End()

	res := getDB(ctx, r.client.db).Model(&itemModel{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update item %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %d not found", id)
	}
	return nil
}

func upsertMeta(db *gorm.DB, row any, ownerColumn string) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: ownerColumn}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert meta: %w", err)
	}
	return nil
}
