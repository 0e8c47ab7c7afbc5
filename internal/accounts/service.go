// Package accounts provides admin account and credential management.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/sqlc"
)

// Service provides account (credential) management for users.
type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
	cost    int
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// Errors returned by account operations.
var (
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// NewService creates a new accounts service.
func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "accounts")),
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
}

// Get returns an account by user id.
func (s *Service) Get(ctx context.Context, userID int64) (Account, error) {
	row, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return toAccount(row), nil
}

// Login authenticates by email and password and records the login time.
func (s *Service) Login(ctx context.Context, email, password string) (Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}
	row, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			// Unknown emails still pay for one comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	now := s.now()
	if err := s.queries.UpdateUserLastLogin(ctx, sqlc.UpdateUserLastLoginParams{
		LastLoginAt: db.NullTime(&now),
		ID:          row.ID,
	}); err != nil {
		s.logger.Warn("touch last login failed", slog.Any("error", err))
	} else {
		row.LastLoginAt = db.NullTime(&now)
	}
	return toAccount(row), nil
}

// Create creates a new account.
func (s *Service) Create(ctx context.Context, req CreateAccountRequest) (Account, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, errors.New("valid email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return Account{}, errors.New("password is required")
	}
	role, err := normalizeRole(req.Role)
	if err != nil {
		return Account{}, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return Account{}, err
	}
	now := db.Unix(s.now())
	row, err := s.queries.CreateUser(ctx, sqlc.CreateUserParams{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, err
	}
	return toAccount(row), nil
}

// EnsureAdmin creates the seed admin when no user exists yet. It reports
// whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	count, err := s.queries.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return false, fmt.Errorf("admin email/password required in config.toml")
	}
	if password == config.DefaultPlaceholderPass {
		s.logger.Warn("admin password uses default placeholder; please update config.toml")
	}
	acc, err := s.Create(ctx, CreateAccountRequest{Email: email, Password: password, Role: RoleAdmin})
	if err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	s.logger.Info("Admin user created", slog.String("email", acc.Email))
	return true, nil
}

// SetPassword replaces the password of the account with the given email.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrInvalidPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	n, err := s.queries.UpdateUserPassword(ctx, sqlc.UpdateUserPasswordParams{
		PasswordHash: string(hashed),
		UpdatedAt:    db.Unix(s.now()),
		Email:        normalizeEmail(email),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("folio-dummy-password"), s.cost)
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeRole(raw string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(raw))
	if role == "" {
		return RoleAdmin, nil
	}
	if role != RoleAdmin && role != RoleEditor {
		return "", fmt.Errorf("invalid role: %s", raw)
	}
	return role, nil
}

func toAccount(row sqlc.User) Account {
	acc := Account{
		ID:        row.ID,
		Email:     row.Email,
		Role:      row.Role,
		CreatedAt: db.TimeFromUnix(row.CreatedAt),
		UpdatedAt: db.TimeFromUnix(row.UpdatedAt),
	}
	if t := db.TimePtr(row.LastLoginAt); t != nil {
		acc.LastLoginAt = *t
	}
	return acc
}
