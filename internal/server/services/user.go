// Package services contains server-side business logic. UserService is the
// credential store: registration, credential verification and login.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/logging"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	maxNameLength     = 100
	minPasswordLength = 6
)

// Session is the result of a successful register or login.
type Session struct {
	User  *models.User
	Token string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenService
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher,
	tokens *auth.TokenService, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "users"),
	}
}

// Register validates input, stores a new user with a bcrypt hash and issues a
// token for them. A taken email yields common.ErrDuplicateEmail.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &Session{User: user, Token: token}, nil
}

// Verify checks email and password. Unknown email and wrong password are
// indistinguishable: both return common.ErrInvalidCredentials after a bcrypt
// comparison.
func (s *UserService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, common.NewValidationError("", "please provide email and password")
	}

	user, err := s.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.logger.Warn(ctx, "login failed")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Profile returns the stored user; a missing one is common.ErrUserNotFound.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return common.NewValidationError("", "please provide all required fields")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return common.NewValidationError("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return common.NewValidationError("email", "please provide a valid email")
	}

	if utf8.RuneCountInString(password) < minPasswordLength {
		return common.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return common.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}
