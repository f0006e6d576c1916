package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/promarket/promarket/internal/domain"
	mw "github.com/promarket/promarket/internal/middleware/auth"
	authsvc "github.com/promarket/promarket/internal/service/auth"
)

type AuthHandler struct {
	Auth *authsvc.Service
}

func (h *AuthHandler) Register(c echo.Context) error {
	role, ok := domain.ParseRole(c.Param("role"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown role")
	}

	ctx := c.Request().Context()
	var (
		sess *authsvc.Session
		err  error
	)
	switch role {
	case domain.RoleManufacturer:
		var in authsvc.RegisterManufacturerInput
		if err := c.Bind(&in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		sess, err = h.Auth.RegisterManufacturer(ctx, in)
	case domain.RoleProfessional:
		var in authsvc.RegisterProfessionalInput
		if err := c.Bind(&in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		sess, err = h.Auth.RegisterProfessional(ctx, in)
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, sess)
}

func (h *AuthHandler) Login(c echo.Context) error {
	role, ok := domain.ParseRole(c.Param("role"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown role")
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := h.Auth.Login(c.Request().Context(), role, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	if err := h.Auth.Logout(c.Request().Context(), identity, mw.RawTokenFrom(c)); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
