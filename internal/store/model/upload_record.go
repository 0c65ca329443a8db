package model

import "gorm.io/gorm"

// UploadRecord is one platform publication of a finished video.
type UploadRecord struct {
	gorm.Model
	JobID    string `gorm:"type:varchar(50);not null;index"`
	Platform string `gorm:"type:varchar(30);not null"`
	Status   string `gorm:"type:varchar(20);not null"`
	RemoteID string `gorm:"type:varchar(100)"`
	URL      string `gorm:"type:text"`
}

// TopicMetric aggregates run outcomes per topic, feeding the content
// manager's next-topic suggestions.
type TopicMetric struct {
	gorm.Model
	Topic      string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Runs       int
	ScoredRuns int
	Uploads    int
	Failures   int
	AvgScore   float64
}
