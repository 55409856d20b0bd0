package auth

import (
	"context"
	"fmt"
	"time"

	pkgAuth "github.com/angelmondragon/songqueue-backend/pkg/auth"
	"github.com/angelmondragon/songqueue-backend/pkg/auth/session"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the operator auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

type sessionManager interface {
	Start(ctx context.Context, accessID, role string) error
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Operator       config.OperatorConfig
	Password       config.PasswordConfig
	JWTConfig      config.JWTConfig
	SessionManager sessionManager
	Clock          func() time.Time
}

type service struct {
	passwordHash string
	session      sessionManager
	jwtCfg       config.JWTConfig
	now          func() time.Time
}

// NewService constructs the operator login service. A plain operator
// password is hashed once here so it is never compared in clear text.
func NewService(params ServiceParams) (Service, error) {
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}

	hash := params.Operator.PasswordHash
	switch {
	case hash != "":
		if err := security.ValidateHash(hash); err != nil {
			return nil, fmt.Errorf("operator password hash: %w", err)
		}
	case params.Operator.Password != "":
		hashed, err := security.HashPassword(params.Operator.Password, params.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing operator password: %w", err)
		}
		hash = hashed
	default:
		return nil, fmt.Errorf("operator password or hash is required")
	}

	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		passwordHash: hash,
		session:      params.SessionManager,
		jwtCfg:       params.JWTConfig,
		now:          clock,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	ok, err := security.VerifyPassword(req.Password, s.passwordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify operator password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	accessID := session.NewAccessID()
	token, expiresAt, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		Role: enums.ActorRoleOperator,
		JTI:  accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if err := s.session.Start(ctx, accessID, enums.ActorRoleOperator.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start operator session")
	}

	return &LoginResponse{AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	if err := s.session.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke operator session")
	}
	return nil
}
