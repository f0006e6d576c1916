package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/promarket/promarket/internal/logging"
	mw "github.com/promarket/promarket/internal/middleware/auth"
	"github.com/promarket/promarket/internal/repo"
	catalogsvc "github.com/promarket/promarket/internal/service/catalog"
	"github.com/promarket/promarket/internal/upload"
)

type ManufacturerHandler struct {
	Repo    *repo.GormRepo
	Catalog *catalogsvc.Service
	Uploads *upload.Storage
}

var manufacturerProfileFields = map[string]bool{
	"company_name":  true,
	"address":       true,
	"phone":         true,
	"business_area": true,
	"contact_name":  true,
}

func (h *ManufacturerHandler) Dashboard(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	ctx := c.Request().Context()

	m, err := h.Repo.ManufacturerByID(ctx, identity.SubjectID)
	if err != nil {
		return httpError(err)
	}

	total, outOfStock, err := h.Repo.CountManufacturerProducts(ctx, identity.SubjectID)
	if err != nil {
		return httpError(err)
	}
	recent, err := h.Repo.RecentManufacturerProducts(ctx, identity.SubjectID, 5)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_products":  total,
		"out_of_stock":    outOfStock,
		"recent_products": recent,
		"manufacturer": echo.Map{
			"company_name": m.CompanyName,
			"email":        m.Email,
		},
	})
}

func (h *ManufacturerHandler) ListProducts(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), 0)
	searchTerm := c.QueryParam("search")

	result, err := h.Catalog.ListOwnProducts(c.Request().Context(), identity, searchTerm, page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CreateProduct accepts a multipart form: product fields plus at least one
// image file.
func (h *ManufacturerHandler) CreateProduct(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}

	price, _ := strconv.ParseFloat(c.FormValue("price"), 64)
	stock, _ := strconv.ParseUint(c.FormValue("stock"), 10, 32)

	var images []string
	for _, fh := range form.File["images"] {
		url, err := h.Uploads.Save(fh, "products", "product", upload.ImageTypes)
		if err != nil {
			h.removeFiles(c, images)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		images = append(images, url)
	}
	if len(images) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one product image is required")
	}

	in := catalogsvc.CreateProductInput{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		Category:     c.FormValue("category"),
		Price:        price,
		Stock:        uint(stock),
		Images:       images,
		Specs:        form.Value["specs"],
		ModelFormats: form.Value["model_formats"],
	}

	product, err := h.Catalog.CreateProduct(c.Request().Context(), identity, in)
	if err != nil {
		h.removeFiles(c, images)
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *ManufacturerHandler) PatchProduct(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var in catalogsvc.UpdateProductInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	product, err := h.Catalog.UpdateProduct(c.Request().Context(), identity, id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ManufacturerHandler) DeleteProduct(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := h.Catalog.DeleteProduct(c.Request().Context(), identity, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile updates whitelisted fields and appends uploaded documents.
func (h *ManufacturerHandler) UpdateProfile(c echo.Context) error {
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
		if !manufacturerProfileFields[field] {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid update field: "+field)
		}
	}

	m, err := h.Repo.ManufacturerByID(ctx, identity.SubjectID)
	if err != nil {
		return httpError(err)
	}

	if v := c.FormValue("company_name"); v != "" {
		m.CompanyName = v
	}
	if v := c.FormValue("address"); v != "" {
		m.Address = v
	}
	if v := c.FormValue("phone"); v != "" {
		m.Phone = v
	}
	if v := c.FormValue("business_area"); v != "" {
		m.BusinessArea = v
	}
	if v := c.FormValue("contact_name"); v != "" {
		m.ContactName = v
	}

	for _, fh := range form.File["documents"] {
		url, err := h.Uploads.Save(fh, "documents", "document", upload.DocumentTypes)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		m.Documents = append(m.Documents, url)
	}

	if err := h.Repo.SaveManufacturer(ctx, m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *ManufacturerHandler) removeFiles(c echo.Context, urls []string) {
	for _, u := range urls {
		if err := h.Uploads.Remove(u); err != nil {
			logging.FromContext(c.Request().Context()).Warn("upload cleanup failed", "path", u, "error", err)
		}
	}
}
