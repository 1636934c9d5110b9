package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/internal/util"
	"shiftdesk/pkg/logger"
)

type AuthService struct {
	admins    AdminStore
	jwtSecret string
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewAuthService(admins AdminStore, jwtSecret string, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		admins:    admins,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// Login checks admin credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Admin, string, error) {
	a, err := s.admins.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, "", ErrUnauthorized
	}
	if err != nil {
		return nil, "", err
	}

	if !util.CheckPassword(password, a.PasswordHash) {
		logger.WithTrace(ctx, s.logger).Info("Admin login rejected", zap.String("email", email))
		return nil, "", ErrUnauthorized
	}

	token, err := util.GenerateJWT(a.ID, a.Email, s.jwtSecret, s.ttl, s.now())
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

// TTL is how long a session token stays valid.
func (s *AuthService) TTL() time.Duration { return s.ttl }
