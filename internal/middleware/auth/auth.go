package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/promarket/promarket/internal/domain"
	authsvc "github.com/promarket/promarket/internal/service/auth"
)

const (
	identityKey = "identity"
	rawTokenKey = "rawToken"
)

type Middleware struct {
	Auth *authsvc.Service
}

// Authenticate resolves the bearer token to an identity or fails the
// request. Authentication failures are 401; a store outage is 503 so
// clients can tell a retryable condition from a bad token.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)

		identity, err := m.Auth.Authenticate(c.Request().Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingToken):
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			case errors.Is(err, domain.ErrStoreUnavailable):
				return echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable")
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
			}
		}

		c.Set(identityKey, identity)
		c.Set(rawTokenKey, raw)
		return next(c)
	}
}

// RequireRole guards role-specific endpoints. A mismatch is 403, distinct
// from the 401 of a failed authentication.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			if identity.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "wrong role")
			}
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(identityKey).(domain.Identity)
	return identity, ok
}

func RawTokenFrom(c echo.Context) string {
	raw, _ := c.Get(rawTokenKey).(string)
	return raw
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
