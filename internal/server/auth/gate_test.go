package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]error

func (f fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	err, ok := f[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.User{UserName: login}, nil
}

func TestGate_Authenticate(t *testing.T) {
	secret := []byte("gate-secret")
	dbDown := errors.New("db down")
	gate := NewGate(secret, fakeUsers{"alice": nil, "flaky": dbDown})
	ctx := context.Background()

	tok, err := GenerateToken("alice", secret, time.Hour)
	require.NoError(t, err)

	id, err := gate.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, models.Identity("alice"), id)

	_, err = gate.Authenticate(ctx, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = gate.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := GenerateToken("alice", secret, -time.Minute)
	require.NoError(t, err)
	_, err = gate.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	ghost, err := GenerateToken("ghost", secret, time.Hour)
	require.NoError(t, err)
	_, err = gate.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	flaky, err := GenerateToken("flaky", secret, time.Hour)
	require.NoError(t, err)
	_, err = gate.Authenticate(ctx, flaky)
	assert.ErrorIs(t, err, dbDown)
	assert.False(t, errors.Is(err, common.ErrorUnauthorized))
}
