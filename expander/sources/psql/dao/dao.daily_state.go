// expander/sources/psql/dao/dao.daily_state.go
package dao

import (
	"context"
	"errors"
	"time"

	"expander/expander/sources/psql/models"

	"gorm.io/gorm"
)

const dailyStateRowID = 1

type DailyStateDAO struct {
	DB *gorm.DB
}

func NewDailyStateDAO(db *gorm.DB) *DailyStateDAO {
	return &DailyStateDAO{DB: db}
}

// Get returns the singleton state row, creating it on first use.
func (dao *DailyStateDAO) Get(ctx context.Context) (*models.DailyState, error) {
	var state models.DailyState
	err := dao.DB.WithContext(ctx).First(&state, "id = ?", dailyStateRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.DailyState{ID: dailyStateRowID}
		if err := dao.DB.WithContext(ctx).Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SetMorningMessage stores today's morning message and marks the day processed.
func (dao *DailyStateDAO) SetMorningMessage(ctx context.Context, day time.Time, message string) error {
	state, err := dao.Get(ctx)
	if err != nil {
		return err
	}
	normalized := StartOfDay(day)
	state.LastProcessedDate = &normalized
	state.MorningMessage = &message
	return dao.DB.WithContext(ctx).Save(state).Error
}

// ClearMorningMessage resets the stored message; the next day-change pass will
// regenerate it.
func (dao *DailyStateDAO) ClearMorningMessage(ctx context.Context) error {
	state, err := dao.Get(ctx)
	if err != nil {
		return err
	}
	state.LastProcessedDate = nil
	state.MorningMessage = nil
	return dao.DB.WithContext(ctx).Save(state).Error
}
