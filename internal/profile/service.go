package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"paytrack/internal/core"
	"paytrack/internal/validate"
)

// Service implements account operations on top of a Repository.
type Service struct {
	repo   Repository
	tokens *Tokens
	cost   int
	now    func() time.Time
}

func NewService(repo Repository, tokens *Tokens) *Service {
	return &Service{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithCost returns a copy of s hashing with the given bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	c := *s
	c.cost = cost
	return &c
}

func (s *Service) Tokens() *Tokens { return s.tokens }

func (s *Service) Register(ctx context.Context, email, displayName, password string) (User, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	if err := validate.Profile(email, displayName, password); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return u, nil
}

// SignIn checks credentials and returns a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if core.IsNotFound(err) {
			return "", User{}, ErrInvalidCredentials
		}
		return "", User{}, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", User{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", User{}, err
	}
	return token, u, nil
}

func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) UpdateDisplayName(ctx context.Context, userID, name string) (User, error) {
	name = strings.TrimSpace(name)
	if !validate.DisplayName(name) {
		ve := &core.ValidationErrors{}
		ve.Add(core.NewValidationError(core.FieldDisplayName,
			fmt.Sprintf("display name is required and must be shorter than %d characters", validate.MaxDisplayNameLength)))
		return User{}, ve
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	u.DisplayName = name
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if !validate.Password(newPassword) {
		ve := &core.ValidationErrors{}
		ve.Add(core.NewValidationError(core.FieldPassword,
			fmt.Sprintf("password must be at least %d characters", validate.MinPasswordLength)))
		return ve
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidOldPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	slog.InfoContext(ctx, "Password changed", "user_id", u.ID)
	return nil
}
