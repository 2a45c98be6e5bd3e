package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/security"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type TokenSigner interface {
	SignAccessToken(username string, now time.Time) (string, error)
	ParseAndValidate(token string) (*security.AccessClaims, error)
}

type AuthService struct {
	users  UserRepository
	signer TokenSigner
	bcrypt *security.BcryptConfig
	now    func() time.Time
}

func NewAuthService(users UserRepository, signer TokenSigner, bcryptCfg *security.BcryptConfig) *AuthService {
	return &AuthService{
		users:  users,
		signer: signer,
		bcrypt: bcryptCfg,
		now:    time.Now,
	}
}

// Login signs a user in, registering the username on first use.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", domain.ErrInvalidInput
	}

	u, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		u, err = s.register(ctx, username, password)
		if err != nil {
			return "", err
		}
	case err != nil:
		return "", fmt.Errorf("users.GetByUsername: %w", err)
	default:
		if err := security.ComparePassword(u.PasswordHash, password); err != nil {
			return "", domain.ErrInvalidCredentials
		}
	}

	token, err := s.signer.SignAccessToken(u.Username, s.now())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) register(ctx context.Context, username, password string) (*domain.User, error) {
	hash, err := security.HashPassword(password, s.bcrypt)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return nil, err
	}

	u := &domain.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			// lost a registration race; treat as a regular login
			existing, getErr := s.users.GetByUsername(ctx, username)
			if getErr != nil {
				return nil, getErr
			}
			if security.ComparePassword(existing.PasswordHash, password) != nil {
				return nil, domain.ErrInvalidCredentials
			}
			return existing, nil
		}
		return nil, fmt.Errorf("users.Create: %w", err)
	}
	return u, nil
}

// Authenticate verifies a bearer token and returns the username it carries.
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := s.signer.ParseAndValidate(token)
	if err != nil {
		return "", err
	}
	return security.Principal(claims)
}
