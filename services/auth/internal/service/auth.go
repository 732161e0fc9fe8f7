package service

import (
	"context"
	"errors"
	"strings"
	"time"

	pkg_hash "github.com/Skotchmaster/restaurant/pkg/hash"
	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/pkg/tokens"
	"github.com/Skotchmaster/restaurant/services/auth/internal/models"
	"github.com/Skotchmaster/restaurant/services/auth/internal/repo"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
)

const (
	maxUsernameLen = 64
	minPasswordLen = 6
)

type Users interface {
	UserExist(ctx context.Context, username, password string) (*models.User, error)
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetCredentials(ctx context.Context, username, passwordHash, role string) error
}

type AuthService struct {
	Repo      Users
	JWTSecret []byte
	AccessTTL time.Duration
	Now       func() time.Time
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	UserID      string
	Role        string
	IsAdmin     bool
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) ttl() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return 24 * time.Hour
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return ErrValidation
	}
	if len(username) > maxUsernameLen || len(password) < minPasswordLen {
		return ErrValidation
	}
	return nil
}

func (s *AuthService) issue(u *models.User) (*LoginResult, error) {
	exp := s.now().Add(s.ttl()).UTC()
	token, err := tokens.NewAccessToken(s.JWTSecret, u.ID, u.Role, exp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		AccessExp:   exp,
		UserID:      u.ID,
		Role:        u.Role,
		IsAdmin:     u.Role == tokens.RoleAdmin,
	}, nil
}

// Register creates a customer account and logs it in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*LoginResult, error) {
	logger := logging.FromContext(ctx).With("op", "register")

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := pkg_hash.HashPassword(password)
	if err != nil {
		logger.Error("hash password", "error", err)
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: hash, Role: tokens.RoleCustomer}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, ErrConflict
		}
		logger.Error("create user", "error", err)
		return nil, err
	}

	logger.Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	logger := logging.FromContext(ctx).With("op", "login")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.Repo.UserExist(ctx, username, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		logger.Error("lookup user", "error", err)
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if errors.Is(err, repo.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// EnsureAdmin creates the admin account, or resets its password and role when
// the username is already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	hash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.Repo.CreateUserIfNotExists(ctx, &models.User{Username: username, PasswordHash: hash, Role: tokens.RoleAdmin})
	if errors.Is(err, repo.ErrUserAlreadyExist) {
		return s.Repo.SetCredentials(ctx, username, hash, tokens.RoleAdmin)
	}
	return err
}
