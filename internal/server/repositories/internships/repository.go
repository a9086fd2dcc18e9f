// Package internships provides PostgreSQL-backed persistence for internship
// applications. Every row carries the owning user's id.
package internships

import (
	"context"

	"github.com/dmitrijs2005/interntrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, it *models.Internship) error
	ListByUser(ctx context.Context, userID string) ([]*models.Internship, error)
	GetByID(ctx context.Context, id string) (*models.Internship, error)
	LockByID(ctx context.Context, id string) (*models.Internship, error)
	Update(ctx context.Context, it *models.Internship) error
	Delete(ctx context.Context, id, userID string) error
	CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error)
}
