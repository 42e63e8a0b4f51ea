package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tuanhng/restaurant-pos/pkg/tokens"
)

const (
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"

	CtxUserName = "user_name"
	CtxRole     = "role"
)

// StripIdentityHeaders removes client-supplied identity headers so the
// services behind the gateway only ever see what the JWT middleware sets.
func StripIdentityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Request().Header.Del(HeaderUserName)
			c.Request().Header.Del(HeaderUserRole)
			return next(c)
		}
	}
}

func JWT(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			claims, err := tokens.StaffClaimsFromToken(raw, secret)
			if err != nil || claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set(CtxUserName, claims.Subject)
			c.Set(CtxRole, claims.Role)
			c.Request().Header.Set(HeaderUserName, claims.Subject)
			c.Request().Header.Set(HeaderUserRole, claims.Role)

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

func RequireRole(required []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(required, role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient rights")
			}
			return next(c)
		}
	}
}
