package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
)

type AccountService struct {
	Users   repository.UserRepository
	JWT     auth.JWT
	Revoker auth.Revoker
	Logger  *zap.Logger
}

// NewUser is the registration payload. IsActive and IsSuperuser are only honoured for superuser callers.
type NewUser struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// ProfileUpdate is what a user may change on their own account.
type ProfileUpdate struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Register creates a regular account. privileged keeps the active/superuser flags from the payload.
func (s *AccountService) Register(ctx context.Context, in NewUser, privileged bool) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, &repository.ValidationError{Field: "email", Reason: "required"}
	}
	if in.Password == "" {
		return nil, &repository.ValidationError{Field: "password", Reason: "required"}
	}
	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &repository.DuplicateError{Resource: "user", Field: "email", Value: email}
	}
	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	input := repository.UserInput{
		Email:          &email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		HashedPassword: &hashed,
	}
	if privileged {
		input.IsActive = in.IsActive
		input.IsSuperuser = in.IsSuperuser
	}
	return s.Users.Create(ctx, input, 0)
}

func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (auth.AccessToken, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return auth.AccessToken{}, err
	}
	return s.JWT.Issue(user.UID)
}

// Logout denylists the token id for the rest of its lifetime.
func (s *AccountService) Logout(ctx context.Context, claims auth.Claims) error {
	if s.Revoker == nil || claims.ID == "" {
		return nil
	}
	return s.Revoker.Revoke(ctx, claims.ID, claims.Remaining(time.Now()))
}

func (s *AccountService) UpdateProfile(ctx context.Context, user *models.User, in ProfileUpdate) (*models.User, error) {
	patch := repository.UserInput{FirstName: in.FirstName, LastName: in.LastName}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" && email != user.Email {
			other, err := s.Users.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, &repository.DuplicateError{Resource: "user", Field: "email", Value: email}
			}
			patch.Email = &email
		}
	}
	if in.Password != nil && *in.Password != "" {
		hashed, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch.HashedPassword = &hashed
	}
	return s.Users.Update(ctx, user, patch)
}
