package postgres

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"seo-ai-api/internal/domain/entity"
)

type itemModel struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	Type            string         `gorm:"size:64;index"`
	Status          string         `gorm:"size:32;index"`
	Title           string         `gorm:"type:text"`
	Body            string         `gorm:"type:text"`
	Slug            string         `gorm:"size:255;index"`
	Tags            pq.StringArray `gorm:"type:text[]"`
	FeaturedImageID int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (itemModel) TableName() string { return "items" }

type itemMetaModel struct {
	ItemID int64  `gorm:"primaryKey"`
	Key    string `gorm:"primaryKey;size:191"`
	Value  string `gorm:"type:text"`
}

func (itemMetaModel) TableName() string { return "item_meta" }

type attachmentModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	FilePath  string `gorm:"size:1024"`
	MimeType  string `gorm:"size:128"`
	CreatedAt time.Time
}

func (attachmentModel) TableName() string { return "attachments" }

type attachmentMetaModel struct {
	AttachmentID int64  `gorm:"primaryKey"`
	Key          string `gorm:"primaryKey;size:191"`
	Value        string `gorm:"type:text"`
}

func (attachmentMetaModel) TableName() string { return "attachment_meta" }

type bulkJobModel struct {
	ID           string        `gorm:"primaryKey;type:uuid"`
	ItemIDs      pq.Int64Array `gorm:"type:bigint[]"`
	Options      []byte        `gorm:"type:jsonb"`
	Status       string        `gorm:"size:32;index"`
	Progress     int
	Processed    int
	Failures     int
	Results      []byte `gorm:"type:jsonb"`
	ErrorMessage string `gorm:"type:text"`
	DurationMs   int
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

func (bulkJobModel) TableName() string { return "bulk_jobs" }

func toItemEntity(m *itemModel, meta []itemMetaModel) *entity.Item {
	item := &entity.Item{
		ID:              m.ID,
		Type:            m.Type,
		Status:          m.Status,
		Title:           m.Title,
		Body:            m.Body,
		Slug:            m.Slug,
		Tags:            []string(m.Tags),
		FeaturedImageID: m.FeaturedImageID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if len(meta) > 0 {
		item.Meta = make(map[string]string, len(meta))
		for _, kv := range meta {
			item.Meta[kv.Key] = kv.Value
		}
	}
	return item
}

func fromItemEntity(item *entity.Item) *itemModel {
	return &itemModel{
		ID:              item.ID,
		Type:            item.Type,
		Status:          item.Status,
		Title:           item.Title,
		Body:            item.Body,
		Slug:            item.Slug,
		Tags:            pq.StringArray(item.Tags),
		FeaturedImageID: item.FeaturedImageID,
	}
}

func toJobEntity(m *bulkJobModel) (*entity.BulkJob, error) {
	job := &entity.BulkJob{
		ID:           m.ID,
		ItemIDs:      []int64(m.ItemIDs),
		Status:       entity.JobStatus(m.Status),
		Progress:     m.Progress,
		Processed:    m.Processed,
		Failures:     m.Failures,
		ErrorMessage: m.ErrorMessage,
		DurationMs:   m.DurationMs,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
	}
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &job.Options); err != nil {
			return nil, err
		}
	}
	if len(m.Results) > 0 {
		if err := json.Unmarshal(m.Results, &job.Results); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func fromJobEntity(job *entity.BulkJob) (*bulkJobModel, error) {
	opts, err := json.Marshal(job.Options)
	if err != nil {
		return nil, err
	}
	results, err := json.Marshal(job.Results)
	if err != nil {
		return nil, err
	}
	return &bulkJobModel{
		ID:           job.ID,
		ItemIDs:      pq.Int64Array(job.ItemIDs),
		Options:      opts,
		Status:       string(job.Status),
		Progress:     job.Progress,
		Processed:    job.Processed,
		Failures:     job.Failures,
		Results:      results,
		ErrorMessage: job.ErrorMessage,
		DurationMs:   job.DurationMs,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}, nil
}
