package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/promarket/promarket/internal/domain"
)

// httpError translates domain errors into stable response codes. Ownership
// failures are reported as not-found so the existence of another subject's
// resources is never revealed; anything uncategorized becomes an opaque 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())

	case errors.Is(err, domain.ErrMissingToken),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrRevokedToken),
		errors.Is(err, domain.ErrSubjectNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")

	case errors.Is(err, domain.ErrWrongRole):
		return echo.NewHTTPError(http.StatusForbidden, "wrong role")

	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "product not found")

	case errors.Is(err, domain.ErrCartItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")

	case errors.Is(err, domain.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, domain.ErrEmailTaken.Error())

	case errors.Is(err, domain.ErrCartNotActive):
		return echo.NewHTTPError(http.StatusConflict, domain.ErrCartNotActive.Error())

	case errors.Is(err, domain.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
