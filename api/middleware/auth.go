package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/songqueue-backend/api/responses"
	pkgAuth "github.com/angelmondragon/songqueue-backend/pkg/auth"
	"github.com/angelmondragon/songqueue-backend/pkg/auth/session"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
)

// OperatorCookieName is the HTTP-only cookie carrying the operator access token.
const OperatorCookieName = "sq_operator"

// Auth resolves operator credentials from the bearer header or the operator
// cookie. Requests without credentials continue anonymously; requests with
// credentials that do not verify are rejected.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), pkgAuth.Context{})))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ac := pkgAuth.Context{
				Operator:  claims.Role == enums.ActorRoleOperator,
				SessionID: claims.ID,
			}
			ctx := WithAuth(r.Context(), ac)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, ac.SessionID)
				ctx = logg.WithActorRole(ctx, ac.Role().String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOperator rejects callers that did not authenticate as the operator.
func RequireOperator(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !AuthFromContext(r.Context()).Operator {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookie, err := r.Cookie(OperatorCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
