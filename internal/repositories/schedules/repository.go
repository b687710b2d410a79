package schedules

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/models"
)

// Repository is the schedule store. Every operation is scoped to one owner.
type Repository interface {
	Add(ctx context.Context, s *models.Schedule) (int64, error)
	Update(ctx context.Context, s *models.Schedule) error
	Delete(ctx context.Context, id, ownerID int64) error
	GetByID(ctx context.Context, ownerID, id int64) (*models.Schedule, error)
	GetAllByUser(ctx context.Context, userID int64) ([]models.Schedule, error)
	GetByDate(ctx context.Context, userID int64, date time.Time) ([]models.Schedule, error)
	Search(ctx context.Context, userID int64, keyword string) ([]models.Schedule, error)
	GetDueForReminder(ctx context.Context, userID int64, now time.Time, horizon time.Duration) ([]models.Schedule, error)
}
