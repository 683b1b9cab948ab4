package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"

	"go.uber.org/zap"
)

// AdminAuth checks panel credentials supplied through configuration. The
// configured secret is both the login password and the bearer token.
type AdminAuth struct {
	credentials []entities.AdminCredential
	log         *zap.Logger
}

func NewAdminAuth(credentials []entities.AdminCredential, log *zap.Logger) (*AdminAuth, error) {
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	for _, c := range credentials {
		if c.Login == "" || c.Secret == "" {
			return nil, fmt.Errorf("admin credential %q: login and secret are required", c.Login)
		}
		if c.Role != entities.RoleAdmin && c.Role != entities.RoleStaff {
			return nil, fmt.Errorf("admin credential %q: unknown role %q", c.Login, c.Role)
		}
	}
	if len(credentials) == 0 {
		log.Warn("usecase: no admin credentials configured, admin api is locked")
	}
	return &AdminAuth{credentials: credentials, log: log}, nil
}

func (a *AdminAuth) Login(ctx context.Context, password string) (string, *entities.AdminIdentity, error) {
	identity, err := a.Authenticate(ctx, password)
	if err != nil {
		a.log.Warn("usecase: admin login failed")
		return "", nil, err
	}
	a.log.Info("usecase: admin login", zap.String("login", identity.Login), zap.String("role", string(identity.Role)))
	return strings.TrimSpace(password), identity, nil
}

func (a *AdminAuth) Authenticate(_ context.Context, token string) (*entities.AdminIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, exceptions.ErrUnauthorized
	}
	var found *entities.AdminIdentity
	for _, c := range a.credentials {
		if subtle.ConstantTimeCompare([]byte(token), []byte(c.Secret)) == 1 && found == nil {
			found = &entities.AdminIdentity{Login: c.Login, Role: c.Role}
		}
	}
	if found == nil {
		return nil, exceptions.ErrUnauthorized
	}
	return found, nil
}
