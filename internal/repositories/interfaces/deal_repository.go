package interfaces

import (
	"context"

	"dealtrail/internal/models"
)

// DealRepository is the read/write view onto the remote deal catalog. The
// catalog's own storage engine is external; the cache only pulls from it.
type DealRepository interface {
	GetBirthdayDeals(ctx context.Context) ([]*models.Deal, error)
	GetDailyDeals(ctx context.Context, day models.DayOfWeek) ([]*models.Deal, error)
	GetMultiDayDeals(ctx context.Context, day models.DayOfWeek) ([]*models.Deal, error)
	GetSpecialDeals(ctx context.Context) ([]*models.Deal, error)
	GetEverydayDeals(ctx context.Context) ([]*models.Deal, error)
	GetByID(ctx context.Context, id string) (*models.Deal, error)
}
