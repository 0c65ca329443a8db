package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

type UploadDao interface {
	Record(ctx context.Context, rec *model.UploadRecord) error
	GetByJobID(ctx context.Context, jobID string) ([]*model.UploadRecord, error)
	CountUploaded(ctx context.Context) (int64, error)
}

type uploadDAO struct{}

func NewUploadDao() UploadDao {
	return &uploadDAO{}
}

func (d *uploadDAO) Record(ctx context.Context, rec *model.UploadRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}

func (d *uploadDAO) GetByJobID(ctx context.Context, jobID string) ([]*model.UploadRecord, error) {
	var recs []*model.UploadRecord
	if err := db.WithContext(ctx).Where("job_id = ?", jobID).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (d *uploadDAO) CountUploaded(ctx context.Context) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&model.UploadRecord{}).Where("status = ?", "uploaded").Count(&count).Error
	return count, err
}

type TopicMetricDao interface {
	Get(ctx context.Context, topic string) (*model.TopicMetric, error)
	Save(ctx context.Context, metric *model.TopicMetric) error
	Top(ctx context.Context, limit int) ([]*model.TopicMetric, error)
}

type topicMetricDAO struct{}

func NewTopicMetricDao() TopicMetricDao {
	return &topicMetricDAO{}
}

func (d *topicMetricDAO) Get(ctx context.Context, topic string) (*model.TopicMetric, error) {
	var metric model.TopicMetric
	err := db.WithContext(ctx).Where("topic = ?", topic).Take(&metric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.TopicMetric{Topic: topic}, nil
		}
		return nil, err
	}
	return &metric, nil
}

func (d *topicMetricDAO) Save(ctx context.Context, metric *model.TopicMetric) error {
	return db.WithContext(ctx).Save(metric).Error
}

func (d *topicMetricDAO) Top(ctx context.Context, limit int) ([]*model.TopicMetric, error) {
	var metrics []*model.TopicMetric
	if err := db.WithContext(ctx).Order("avg_score DESC, uploads DESC").Limit(limit).Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}
