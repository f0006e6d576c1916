package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	mw "github.com/promarket/promarket/internal/middleware/auth"
	cartsvc "github.com/promarket/promarket/internal/service/cart"
)

type CartHandler struct {
	Cart *cartsvc.Service
}

func (h *CartHandler) GetCart(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	cart, err := h.Cart.GetActiveCart(c.Request().Context(), identity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	var req struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  uint      `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	cart, err := h.Cart.AddItem(c.Request().Context(), identity, req.ProductID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	cart, err := h.Cart.UpdateQuantity(c.Request().Context(), identity, productID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	cart, err := h.Cart.RemoveItem(c.Request().Context(), identity, productID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	cart, err := h.Cart.Clear(c.Request().Context(), identity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Checkout(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	cart, err := h.Cart.Complete(c.Request().Context(), identity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Abandon(c echo.Context) error {
	identity, ok := mw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	cart, err := h.Cart.Abandon(c.Request().Context(), identity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}
