// Package users persists registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/safedrop/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// List returns all usernames in alphabetical order.
	List(ctx context.Context) ([]string, error)
}
