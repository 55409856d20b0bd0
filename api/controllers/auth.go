package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/songqueue-backend/api/middleware"
	"github.com/angelmondragon/songqueue-backend/api/responses"
	"github.com/angelmondragon/songqueue-backend/api/validators"
	"github.com/angelmondragon/songqueue-backend/internal/auth"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
)

// TokenHeader carries the freshly minted operator token on login.
const TokenHeader = "X-SQ-Token"

// AdminAuthLogin exchanges the operator password for an access token. The
// token is returned in the body, the TokenHeader and an HTTP-only cookie.
func AdminAuthLogin(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(TokenHeader, result.AccessToken)
		http.SetCookie(w, operatorCookie(cfg, result.AccessToken, result.ExpiresAt))
		responses.WriteSuccess(w, result)
	}
}

// AdminAuthLogout revokes the caller's operator session and clears the cookie.
func AdminAuthLogout(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Logout(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie := operatorCookie(cfg, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
		responses.WriteSuccess(w, map[string]bool{"loggedOut": true})
	}
}

func operatorCookie(cfg *config.Config, value string, expires time.Time) *http.Cookie {
	secure := cfg != nil && cfg.App.IsProd()
	return &http.Cookie{
		Name:     middleware.OperatorCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
