package dao

import (
	"context"

	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

type StageExecDao interface {
	Append(ctx context.Context, exec *model.StageExecution) error
	GetByJobID(ctx context.Context, jobID string) ([]*model.StageExecution, error)
}

type stageExecDAO struct{}

func NewStageExecDao() StageExecDao {
	return &stageExecDAO{}
}

func (d *stageExecDAO) Append(ctx context.Context, exec *model.StageExecution) error {
	return db.WithContext(ctx).Create(exec).Error
}

func (d *stageExecDAO) GetByJobID(ctx context.Context, jobID string) ([]*model.StageExecution, error) {
	var execs []*model.StageExecution
	if err := db.WithContext(ctx).Where("job_id = ?", jobID).Order("id ASC").Find(&execs).Error; err != nil {
		return nil, err
	}
	return execs, nil
}
