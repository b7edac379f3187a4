// Package auth resolves the caller's login for both HTTP surfaces: a bearer
// token on the API and a server-side session cookie on pages.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/inventory/internal/flash"
	"github.com/Skotchmaster/inventory/internal/logging"
	"github.com/Skotchmaster/inventory/internal/service"
	"github.com/Skotchmaster/inventory/internal/tokens"
	"github.com/Skotchmaster/inventory/internal/transport"
)

const (
	ctxLogin = "login"
	ctxToken = "user"

	SessionCookie = "session"

	MsgLoginRequired = "Você precisa estar logado para acessar esta página."
	MsgInvalidToken  = "Token de acesso ausente ou inválido"
)

// LoginFrom returns the login set by one of the gates, or "".
func LoginFrom(c echo.Context) string {
	login, _ := c.Get(ctxLogin).(string)
	return login
}

var errBadToken = errors.New("invalid token")

// BearerGate rejects API requests without a valid access token. The parsed
// *tokens.AccessClaims are stored under "user".
func BearerGate(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ctxToken,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			claims, err := tokens.AccessClaimsFromToken(auth, secret)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errBadToken, err)
			}
			return claims, nil
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(ctxToken).(*tokens.AccessClaims); ok {
				c.Set(ctxLogin, claims.Subject)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "bearer_gate")
			reason := "missing token"
			if errors.Is(err, errBadToken) {
				reason = "invalid token"
			}
			l.Warn("auth_failed", "status", 401, "reason", reason, "error", err)
			return c.JSON(http.StatusUnauthorized, transport.ErrorResponse{Erro: MsgInvalidToken})
		},
	})
}

// SessionResolver is the part of service.AuthService the page gate needs.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// SessionGate sends visitors without a live session back to the login page.
func SessionGate(sessions SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "session_gate")

			var token string
			if ck, err := c.Cookie(SessionCookie); err == nil {
				token = ck.Value
			}

			login, err := sessions.ResolveSession(ctx, token)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthenticated) {
					l.Error("session_lookup_failed", "status", 500, "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve session")
				}
				flash.Add(c, MsgLoginRequired)
				return c.Redirect(http.StatusSeeOther, "/")
			}

			c.Set(ctxLogin, login)
			return next(c)
		}
	}
}

// CurrentSession resolves the session without enforcing it. The login page
// uses it to skip the form for visitors who are already signed in.
func CurrentSession(c echo.Context, sessions SessionResolver) string {
	ck, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	login, err := sessions.ResolveSession(c.Request().Context(), ck.Value)
	if err != nil {
		return ""
	}
	return login
}
