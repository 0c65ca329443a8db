package model

import "gorm.io/gorm"

// Job is the persisted pipeline run.
type Job struct {
	gorm.Model
	JobID          string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Source         string `gorm:"type:text;not null"`
	SourceType     string `gorm:"type:varchar(20);not null"`
	Topic          string `gorm:"type:varchar(255)"`
	Language       string `gorm:"type:varchar(50)"`
	Style          string `gorm:"type:varchar(50)"`
	TargetDuration int
	TriggerType    string `gorm:"type:varchar(20);not null;default:manual"`
	Status         string `gorm:"type:varchar(20);not null"`
	CurrentStage   string `gorm:"type:varchar(50)"`
}
