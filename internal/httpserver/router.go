package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

type authService interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	IsAuthenticated() bool
	Token() string
}

type catalogService interface {
	List(ctx context.Context, filter catalog.Filter) ([]domain.Product, error)
	Get(ctx context.Context, id int) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type cartStore interface {
	Add(ctx context.Context, product domain.Product) error
	Remove(ctx context.Context, productID int) error
	UpdateQuantity(ctx context.Context, productID, quantity int) error
	Clear(ctx context.Context) error
	Snapshot() cart.View
}

type checkoutRunner interface {
	Run(ctx context.Context, onProgress func(int)) (*checkout.Order, error)
}

// Deps carries the services the routes are built on.
type Deps struct {
	Auth     authService
	Catalog  catalogService
	Cart     cartStore
	Checkout checkoutRunner
}

// buildRouter wires routes for the storefront API. Everything except login
// and the health probes sits behind the session middleware, matching the
// reference UI which redirects unauthenticated visitors to the login page.
func buildRouter(logger *log.Logger, storage kvstore.Store, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(storage))

	router.POST("/auth/login", loginHandler(deps.Auth))

	authorized := router.Group("/", sessionMiddleware(deps.Auth))
	authorized.POST("/auth/logout", logoutHandler(deps.Auth))

	authorized.GET("/products", listProductsHandler(deps.Catalog))
	authorized.GET("/products/categories", categoriesHandler(deps.Catalog))
	authorized.GET("/products/:id", getProductHandler(deps.Catalog))

	authorized.GET("/cart", getCartHandler(deps.Cart))
	authorized.POST("/cart/items", addCartItemHandler(deps.Cart, deps.Catalog))
	authorized.PATCH("/cart/items/:id", updateCartItemHandler(deps.Cart))
	authorized.DELETE("/cart/items/:id", removeCartItemHandler(deps.Cart))
	authorized.DELETE("/cart", clearCartHandler(deps.Cart))
	authorized.POST("/cart/checkout", checkoutHandler(deps.Checkout))

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(storage kvstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := storage.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
