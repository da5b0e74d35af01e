package repository

import (
	"context"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/xcontext"
)

type EventCount struct {
	Event string
	Count int64
}

type AnalyticsEventRepository interface {
	Create(ctx context.Context, event *entity.AnalyticsEvent) error
	CountByEvent(ctx context.Context) ([]EventCount, error)
}

type analyticsEventRepository struct{}

func NewAnalyticsEventRepository() *analyticsEventRepository {
	return &analyticsEventRepository{}
}

func (r *analyticsEventRepository) Create(ctx context.Context, event *entity.AnalyticsEvent) error {
	return xcontext.DB(ctx).Create(event).Error
}

func (r *analyticsEventRepository) CountByEvent(ctx context.Context) ([]EventCount, error) {
	var result []EventCount
	err := xcontext.DB(ctx).Model(&entity.AnalyticsEvent{}).
		Select("event, COUNT(*) AS count").
		Group("event").
		Order("count DESC").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
