package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/handlers"
	mw "github.com/promarket/promarket/internal/middleware/auth"
)

type Deps struct {
	AuthMW              *mw.Middleware
	AuthHandler         *handlers.AuthHandler
	ProductHandler      *handlers.ProductHandler
	CartHandler         *handlers.CartHandler
	ManufacturerHandler *handlers.ManufacturerHandler
	ProfessionalHandler *handlers.ProfessionalHandler
	SearchHandler       *handlers.SearchHandler
	UploadDir           string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.Static("/uploads", d.UploadDir)

	v1 := e.Group("/api/v1")

	v1.POST("/auth/:role/register", d.AuthHandler.Register)
	v1.POST("/auth/:role/login", d.AuthHandler.Login)
	v1.POST("/auth/logout", d.AuthHandler.Logout, d.AuthMW.Authenticate)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	cart := v1.Group("/cart", d.AuthMW.Authenticate)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PUT("/items/:productId", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:productId", d.CartHandler.RemoveItem)
	cart.POST("/checkout", d.CartHandler.Checkout)
	cart.POST("/abandon", d.CartHandler.Abandon)

	manufacturer := v1.Group("/manufacturer", d.AuthMW.Authenticate, mw.RequireRole(domain.RoleManufacturer))
	manufacturer.GET("/dashboard", d.ManufacturerHandler.Dashboard)
	manufacturer.GET("/products", d.ManufacturerHandler.ListProducts)
	manufacturer.POST("/products", d.ManufacturerHandler.CreateProduct)
	manufacturer.PATCH("/products/:id", d.ManufacturerHandler.PatchProduct)
	manufacturer.DELETE("/products/:id", d.ManufacturerHandler.DeleteProduct)
	manufacturer.PUT("/profile", d.ManufacturerHandler.UpdateProfile)

	professional := v1.Group("/professional", d.AuthMW.Authenticate, mw.RequireRole(domain.RoleProfessional))
	professional.GET("/dashboard", d.ProfessionalHandler.Dashboard)
	professional.GET("/profile", d.ProfessionalHandler.GetProfile)
	professional.PUT("/profile", d.ProfessionalHandler.UpdateProfile)
	professional.GET("/favorites", d.ProfessionalHandler.ListFavorites)
	professional.POST("/favorites/:productId", d.ProfessionalHandler.AddFavorite)
	professional.DELETE("/favorites/:productId", d.ProfessionalHandler.RemoveFavorite)
}
