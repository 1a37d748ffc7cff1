// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and access token issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/cryptox"
	"github.com/dmitrijs2005/safedrop/internal/server/auth"
	"github.com/dmitrijs2005/safedrop/internal/server/config"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/server/repositories/repomanager"
)

const maxUserNameLength = 64

// UserService provides account operations:
// - Register: create users with an argon2id password hash
// - Login: verify credentials and mint an access token
// - ListUsers: the directory of registered usernames
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new user. A taken username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateUserName(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", common.ErrorInvalidArgument)
	}

	hash, err := cryptox.HashPassword([]byte(password))
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password and returns a fresh access token. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnPasswordCheck(password)
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword([]byte(password), user.PasswordHash)
	if err != nil {
		return "", common.ErrorInternal
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.UserName, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// ListUsers returns every registered username.
func (s *UserService) ListUsers(ctx context.Context) ([]string, error) {
	names, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return names, nil
}

// burnPasswordCheck spends the same hashing effort as a real login so
// unknown usernames cannot be told apart by timing.
func (s *UserService) burnPasswordCheck(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = cryptox.HashPassword(common.GenerateRandByteArray(16))
	})
	if s.dummyHash != "" {
		_, _ = cryptox.VerifyPassword([]byte(password), s.dummyHash)
	}
}

func validateUserName(name string) error {
	if name == "" || len(name) > maxUserNameLength {
		return fmt.Errorf("%w: username must be 1..%d bytes", common.ErrorInvalidArgument, maxUserNameLength)
	}
	if strings.IndexFunc(name, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("%w: username must not contain whitespace", common.ErrorInvalidArgument)
	}
	return nil
}
