package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/imamhossain-git/e-commerce/internal/users/domain"
	"github.com/imamhossain-git/e-commerce/internal/users/repository"
)

var (
	ErrEmailTaken         = repository.ErrEmailTaken
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type UserService struct {
	repo repository.UserRepository
	log  *slog.Logger
}

func NewUserService(repo repository.UserRepository, log *slog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// Register creates an account and signs the session in.
func (s *UserService) Register(ctx context.Context, sessionID, email, password, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if sessionID != "" {
		if err := s.repo.LinkSession(ctx, sessionID, user.ID); err != nil {
			s.log.WarnContext(ctx, "linking session after register failed",
				"user_id", user.ID, "error", err)
		}
	}

	s.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and binds the session to the user. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, sessionID, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if sessionID != "" {
		if err := s.repo.LinkSession(ctx, sessionID, user.ID); err != nil {
			return nil, err
		}
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return user, nil
}

// Me resolves the user behind a session; anonymous sessions get
// ErrNotAuthenticated.
func (s *UserService) Me(ctx context.Context, sessionID string) (*domain.User, error) {
	if sessionID == "" {
		return nil, ErrNotAuthenticated
	}
	user, err := s.repo.GetUserBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}
