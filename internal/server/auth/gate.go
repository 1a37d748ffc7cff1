package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
)

// UserLookup is the part of the user registry the gate needs.
type UserLookup interface {
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// Gate authenticates access tokens. A token is accepted only while its
// subject is still a registered user.
type Gate struct {
	secret []byte
	users  UserLookup
}

func NewGate(secret []byte, users UserLookup) *Gate {
	return &Gate{secret: secret, users: users}
}

// Authenticate returns the identity behind token, or an error wrapping
// common.ErrorUnauthorized.
func (g *Gate) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", common.ErrorUnauthorized)
	}

	name, err := GetUserNameFromToken(token, g.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	if _, err := g.users.GetUserByLogin(ctx, name); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: unknown user", common.ErrorUnauthorized)
		}
		return "", err
	}

	return models.Identity(name), nil
}
