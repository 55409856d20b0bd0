package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/songqueue-backend/pkg/auth"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/security"
)

type fakeSessionManager struct {
	started  map[string]string
	revoked  []string
	startErr error
}

func (f *fakeSessionManager) Start(ctx context.Context, accessID, role string) error {
	if f.startErr != nil {
		return f.startErr
	}
	if f.started == nil {
		f.started = map[string]string{}
	}
	f.started[accessID] = role
	return nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

var (
	testPasswordCfg = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	testJWTCfg      = config.JWTConfig{Secret: "secret", Issuer: "songqueue", ExpirationMinutes: 60}
)

func newTestService(t *testing.T, sessions *fakeSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Operator:       config.OperatorConfig{Password: "3233"},
		Password:       testPasswordCfg,
		JWTConfig:      testJWTCfg,
		SessionManager: sessions,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLoginIssuesOperatorToken(t *testing.T) {
	sessions := &fakeSessionManager{}
	svc := newTestService(t, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Password: "3233"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.ExpiresAt.Before(time.Now()) {
		t.Fatalf("unexpected response %+v", resp)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTCfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != enums.ActorRoleOperator {
		t.Fatalf("expected operator role, got %s", claims.Role)
	}
	if sessions.started[claims.ID] != "operator" {
		t.Fatalf("expected session keyed by jti %s, got %v", claims.ID, sessions.started)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	sessions := &fakeSessionManager{}
	svc := newTestService(t, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{Password: "guess"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(sessions.started) != 0 {
		t.Fatal("failed login must not start a session")
	}
}

func TestLoginSessionFailureIsDependencyError(t *testing.T) {
	svc := newTestService(t, &fakeSessionManager{startErr: errors.New("redis down")})

	_, err := svc.Login(context.Background(), LoginRequest{Password: "3233"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceAcceptsPrecomputedHash(t *testing.T) {
	hash, err := security.HashPassword("s3cret", testPasswordCfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Operator:       config.OperatorConfig{PasswordHash: hash, Password: "ignored"},
		JWTConfig:      testJWTCfg,
		SessionManager: &fakeSessionManager{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Password: "s3cret"}); err != nil {
		t.Fatalf("login with hashed credential: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Password: "ignored"}); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("hash must take precedence over plain password, got %v", err)
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Operator: config.OperatorConfig{Password: "x"}}); err == nil {
		t.Fatal("expected missing session manager to fail")
	}
	if _, err := NewService(ServiceParams{SessionManager: &fakeSessionManager{}}); err == nil {
		t.Fatal("expected missing credential to fail")
	}
	if _, err := NewService(ServiceParams{
		Operator:       config.OperatorConfig{PasswordHash: "plain-text"},
		SessionManager: &fakeSessionManager{},
	}); err == nil {
		t.Fatal("expected malformed hash to fail")
	}
}

func TestLogout(t *testing.T) {
	sessions := &fakeSessionManager{}
	svc := newTestService(t, sessions)

	if err := svc.Logout(context.Background(), ""); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty session, got %v", err)
	}
	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected revoke of jti-1, got %v", sessions.revoked)
	}
}
