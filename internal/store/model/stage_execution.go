package model

import "gorm.io/gorm"

// StageExecution is one append-only stage history row under its job.
type StageExecution struct {
	gorm.Model
	JobID       string `gorm:"type:varchar(50);not null;index"`
	Stage       string `gorm:"type:varchar(50);not null"`
	Status      string `gorm:"type:varchar(20);not null"`
	Artifact    string `gorm:"type:text"`
	ErrorKind   string `gorm:"type:varchar(30)"`
	ErrorDetail string `gorm:"type:text"`
	Retries     int
	DurationMs  int64
}
