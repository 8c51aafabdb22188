package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
)

type cartTotals struct {
	ItemCount   int    `json:"itemCount"`
	Subtotal    string `json:"subtotal"`
	ShippingFee string `json:"shippingFee"`
	Total       string `json:"total"`
}

type cartResponse struct {
	Items  []domain.CartItem `json:"items"`
	Totals cartTotals        `json:"totals"`
}

// toCartResponse renders a consistent cart view. Amounts are rounded to two
// places here, at the display boundary, and nowhere earlier.
func toCartResponse(v cart.View) cartResponse {
	items := v.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items: items,
		Totals: cartTotals{
			ItemCount:   v.Totals.ItemCount,
			Subtotal:    v.Totals.Subtotal.StringFixed(2),
			ShippingFee: v.Totals.ShippingFee.StringFixed(2),
			Total:       v.Totals.Total.StringFixed(2),
		},
	}
}

func getCartHandler(store cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

type addItemRequest struct {
	ProductID int `json:"productId" binding:"required"`
}

func addCartItemHandler(store cartStore, cat catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
			return
		}

		product, err := cat.Get(c.Request.Context(), req.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			catalogError(c, err)
			return
		}

		if err := store.Add(c.Request.Context(), *product); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart not persisted"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func updateCartItemHandler(store cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity required"})
			return
		}

		// The store clamps non-positive quantities to 1 itself.
		if err := store.UpdateQuantity(c.Request.Context(), id, req.Quantity); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart not persisted"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func removeCartItemHandler(store cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		if err := store.Remove(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart not persisted"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func clearCartHandler(store cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Clear(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart not persisted"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

type orderResponse struct {
	ID          string            `json:"id"`
	Items       []domain.CartItem `json:"items"`
	Subtotal    string            `json:"subtotal"`
	ShippingFee string            `json:"shippingFee"`
	Total       string            `json:"total"`
	PlacedAt    time.Time         `json:"placedAt"`
}

func checkoutHandler(runner checkoutRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := runner.Run(c.Request.Context(), nil)
		if err != nil {
			switch {
			case errors.Is(err, checkout.ErrEmptyCart):
				c.JSON(http.StatusConflict, gin.H{"error": "cart is empty"})
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				c.JSON(http.StatusRequestTimeout, gin.H{"error": "checkout aborted"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
			}
			return
		}
		c.JSON(http.StatusOK, orderResponse{
			ID:          order.ID,
			Items:       order.Items,
			Subtotal:    order.Subtotal.StringFixed(2),
			ShippingFee: order.ShippingFee.StringFixed(2),
			Total:       order.Total.StringFixed(2),
			PlacedAt:    order.PlacedAt,
		})
	}
}
