package models

import "time"

// DailyState is a single-row table tracking the day-change pipeline: when the
// orchestrator last processed a day boundary and the morning message generated
// for it.
type DailyState struct {
	ID                int        `gorm:"primaryKey"`
	LastProcessedDate *time.Time `gorm:"index"`
	MorningMessage    *string    `gorm:"type:text"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}

func (DailyState) TableName() string {
	return "daily_states"
}
