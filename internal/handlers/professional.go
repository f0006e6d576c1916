package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/promarket/promarket/internal/logging"
	mw "github.com/promarket/promarket/internal/middleware/auth"
	"github.com/promarket/promarket/internal/repo"
	"github.com/promarket/promarket/internal/upload"
)

type ProfessionalHandler struct {
	Repo    *repo.GormRepo
	Uploads *upload.Storage
}

var professionalProfileFields = map[string]bool{
	"full_name":  true,
	"profession": true,
}

func (h *ProfessionalHandler) Dashboard(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	p, err := h.Repo.ProfessionalByID(c.Request().Context(), identity.SubjectID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"professional": echo.Map{
			"full_name":  p.FullName,
			"email":      p.Email,
			"profession": p.Profession,
		},
	})
}

func (h *ProfessionalHandler) GetProfile(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	p, err := h.Repo.ProfessionalByID(c.Request().Context(), identity.SubjectID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProfile updates whitelisted fields; a newly uploaded diploma
// replaces the old file on disk.
func (h *ProfessionalHandler) UpdateProfile(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	ctx := c.Request().Context()

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	for field := range form.Value {
		if !professionalProfileFields[field] {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid update field: "+field)
		}
	}

	p, err := h.Repo.ProfessionalByID(ctx, identity.SubjectID)
	if err != nil {
		return httpError(err)
	}

	if v := c.FormValue("full_name"); v != "" {
		p.FullName = v
	}
	if v := c.FormValue("profession"); v != "" {
		p.Profession = v
	}

	if fhs := form.File["diploma"]; len(fhs) > 0 {
		url, err := h.Uploads.Save(fhs[0], "diplomas", "diploma", upload.DocumentTypes)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if p.Diploma != "" {
			if err := h.Uploads.Remove(p.Diploma); err != nil {
				logging.FromContext(ctx).Warn("old diploma cleanup failed", "error", err)
			}
		}
		p.Diploma = url
	}

	if err := h.Repo.SaveProfessional(ctx, p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfessionalHandler) ListFavorites(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	products, err := h.Repo.ListFavorites(c.Request().Context(), identity.SubjectID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProfessionalHandler) AddFavorite(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	ctx := c.Request().Context()

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if _, err := h.Repo.ProductByID(ctx, productID); err != nil {
		return httpError(err)
	}

	if err := h.Repo.AddFavorite(ctx, identity.SubjectID, productID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "added to favorites"})
}

func (h *ProfessionalHandler) RemoveFavorite(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := h.Repo.RemoveFavorite(c.Request().Context(), identity.SubjectID, productID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed from favorites"})
}
