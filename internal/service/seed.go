package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// SystemStyles are created owner-less on first start.
var SystemStyles = []string{
	"Scalp Trade",
	"Day Trade",
	"Short Term Trade",
	"Swing Trade",
	"Position Trade",
}

type Seeder struct {
	Accounts *AccountService
	Styles   repository.StyleRepository
	Logger   *zap.Logger
}

func (s *Seeder) Run(ctx context.Context, superuserEmail, superuserPassword string) error {
	if err := s.EnsureSuperuser(ctx, superuserEmail, superuserPassword); err != nil {
		return err
	}
	return s.EnsureSystemStyles(ctx)
}

func (s *Seeder) EnsureSuperuser(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	existing, err := s.Accounts.Users.GetByEmail(ctx, email)
	if err != nil || existing != nil {
		return err
	}
	yes := true
	user, err := s.Accounts.Register(ctx, NewUser{
		Email:       email,
		Password:    password,
		IsActive:    &yes,
		IsSuperuser: &yes,
	}, true)
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("seeded superuser", zap.Uint64("uid", user.UID), zap.String("email", user.Email))
	}
	return nil
}

func (s *Seeder) EnsureSystemStyles(ctx context.Context) error {
	for _, name := range SystemStyles {
		existing, err := s.Styles.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		name := name
		if _, err := s.Styles.Create(ctx, repository.StyleInput{NamedInput: repository.NamedInput{Name: &name}}, 0); err != nil {
			return err
		}
		if s.Logger != nil {
			s.Logger.Info("seeded style", zap.String("name", name))
		}
	}
	return nil
}
