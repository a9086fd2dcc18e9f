// Package users provides the PostgreSQL-backed credential store.
package users

import (
	"context"

	"github.com/dmitrijs2005/interntrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
