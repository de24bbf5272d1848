// Package httpserver wires the HTTP surface: route registration and the
// handler dependency set.
package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/assistant"
	"github.com/solarpro/storefront/internal/auth"
	"github.com/solarpro/storefront/internal/events"
	"github.com/solarpro/storefront/internal/handlers"
	"github.com/solarpro/storefront/internal/payment"
	"github.com/solarpro/storefront/internal/search"
	"github.com/solarpro/storefront/internal/service/carts"
	"github.com/solarpro/storefront/internal/service/checkout"
	"github.com/solarpro/storefront/internal/service/stats"
	"github.com/solarpro/storefront/internal/settings"
)

type Deps struct {
	DB        *gorm.DB
	JWTSecret []byte
	Producer  *events.Producer
	Search    *search.Service
	Assistant *assistant.Service
	Gateway   payment.Gateway
	PublicURL string
}

func Register(e *echo.Echo, deps Deps) {
	cartSvc := &carts.Service{DB: deps.DB}
	statsSvc := &stats.Service{DB: deps.DB, Carts: cartSvc}
	settingsStore := &settings.Store{DB: deps.DB}
	engine := &checkout.Engine{DB: deps.DB}

	authHandler := &handlers.AuthHandler{DB: deps.DB, JWTSecret: deps.JWTSecret, Producer: deps.Producer}
	productHandler := &handlers.ProductHandler{DB: deps.DB, Producer: deps.Producer}
	cartHandler := &handlers.CartHandler{Carts: cartSvc, Producer: deps.Producer}
	checkoutHandler := &handlers.CheckoutHandler{DB: deps.DB, Engine: engine, Producer: deps.Producer}
	paymentHandler := &handlers.PaymentHandler{DB: deps.DB, Gateway: deps.Gateway, Settings: settingsStore, PublicURL: deps.PublicURL}
	accountHandler := &handlers.AccountHandler{DB: deps.DB}
	contactHandler := &handlers.ContactHandler{DB: deps.DB}
	chatHandler := &handlers.ChatHandler{Assistant: deps.Assistant, Stats: statsSvc, Settings: settingsStore}
	calculatorHandler := &handlers.CalculatorHandler{}
	searchHandler := &handlers.SearchHandler{Service: deps.Search}
	adminHandler := &handlers.AdminHandler{DB: deps.DB, Stats: statsSvc, Carts: cartSvc, Settings: settingsStore}

	mw := &auth.Middleware{JWTSecret: deps.JWTSecret}

	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := deps.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	// Public surface.
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)

	api.GET("/products", productHandler.GetProducts)
	api.GET("/products/:id", productHandler.GetProduct)
	api.GET("/categories", productHandler.Categories)
	api.GET("/search", searchHandler.Search)

	api.POST("/contact", contactHandler.Submit)
	api.POST("/roi", calculatorHandler.Estimate)
	api.POST("/coupons/validate", checkoutHandler.ValidateCoupon)
	api.POST("/chat", chatHandler.Chat)
	api.POST("/chat/recommendation", chatHandler.Recommendation)
	api.POST("/chat/savings", chatHandler.Savings)
	api.GET("/chat/status", chatHandler.Status)

	// Authenticated customer surface.
	user := api.Group("", mw.RequireLogin)
	user.GET("/cart", cartHandler.GetCart)
	user.PUT("/cart", cartHandler.SaveCart)
	user.POST("/checkout", checkoutHandler.Checkout)
	user.POST("/payments", paymentHandler.CreatePayment)
	user.GET("/payments/success/:id", paymentHandler.PaymentSuccess)
	user.GET("/payments/failure/:id", paymentHandler.PaymentFailure)
	user.GET("/payments/pending/:id", paymentHandler.PaymentPending)
	user.GET("/me", accountHandler.Me)
	user.PUT("/me", accountHandler.UpdateProfile)
	user.GET("/orders", accountHandler.MyOrders)
	user.GET("/orders/:id", accountHandler.GetOrder)
	user.GET("/wishlist", accountHandler.Wishlist)
	user.POST("/wishlist/:id", accountHandler.AddToWishlist)
	user.DELETE("/wishlist/:id", accountHandler.RemoveFromWishlist)

	// Back office.
	admin := api.Group("/admin", mw.RequireAdmin)
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/orders", adminHandler.ListOrders)
	admin.GET("/orders/:id", adminHandler.GetOrder)
	admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.GET("/customers", adminHandler.ListCustomers)
	admin.GET("/carts/abandoned", adminHandler.AbandonedCarts)
	admin.POST("/products", productHandler.CreateProduct)
	admin.PUT("/products/:id", productHandler.PatchProduct)
	admin.DELETE("/products/:id", productHandler.DeleteProduct)
	admin.GET("/coupons", adminHandler.ListCoupons)
	admin.POST("/coupons", adminHandler.CreateCoupon)
	admin.PUT("/coupons/:id", adminHandler.UpdateCoupon)
	admin.DELETE("/coupons/:id", adminHandler.DeleteCoupon)
	admin.GET("/settings", adminHandler.GetSettings)
	admin.PUT("/settings", adminHandler.UpdateSettings)
	admin.GET("/contacts", adminHandler.ListContacts)
	admin.PUT("/contacts/:id/answered", adminHandler.MarkContactAnswered)
	admin.GET("/logs", adminHandler.ListLogs)
	admin.POST("/chat", chatHandler.AdminChat)
}
