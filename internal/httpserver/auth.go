package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/fakestore"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(auth authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		if err := auth.Login(c.Request.Context(), req.Username, req.Password); err != nil {
			switch {
			case errors.Is(err, fakestore.ErrInvalidCredentials):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			case errors.Is(err, fakestore.ErrUnavailable):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store api unavailable"})
			default:
				c.JSON(http.StatusBadGateway, gin.H{"error": "login failed"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": auth.Token()})
	}
}

func logoutHandler(auth authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Logout(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// sessionMiddleware admits requests carrying the current session token as a
// bearer credential. There is one session per process, like the cart.
func sessionMiddleware(auth authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != auth.Token() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}
