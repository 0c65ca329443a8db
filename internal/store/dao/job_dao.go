package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/levi616boop/AI-content-gen/internal/common"
	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

type JobDao interface {
	Upsert(ctx context.Context, job *model.Job) error
	GetByJobID(ctx context.Context, jobID string) (*model.Job, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Job, error)
	ListByTopic(ctx context.Context, topic string) ([]*model.Job, error)
}

type jobDAO struct{}

func NewJobDao() JobDao {
	return &jobDAO{}
}

func (d *jobDAO) Upsert(ctx context.Context, job *model.Job) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "current_stage", "topic", "updated_at",
		}),
	}).Create(job).Error
}

func (d *jobDAO) GetByJobID(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	err := db.WithContext(ctx).Where("job_id = ?", jobID).Take(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.JobNotExists)
		}
		return nil, err
	}
	return &job, nil
}

func (d *jobDAO) ListRecent(ctx context.Context, limit int) ([]*model.Job, error) {
	var jobs []*model.Job
	if err := db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (d *jobDAO) ListByTopic(ctx context.Context, topic string) ([]*model.Job, error) {
	var jobs []*model.Job
	if err := db.WithContext(ctx).Where("topic = ?", topic).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
