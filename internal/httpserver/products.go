package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/fakestore"
)

func listProductsHandler(cat catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := catalog.Filter{
			Category: c.Query("category"),
			Query:    c.Query("q"),
		}
		products, err := cat.List(c.Request.Context(), filter)
		if err != nil {
			catalogError(c, err)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler(cat catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		product, err := cat.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			catalogError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func categoriesHandler(cat catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := cat.Categories(c.Request.Context())
		if err != nil {
			catalogError(c, err)
			return
		}
		if categories == nil {
			categories = []string{}
		}
		c.JSON(http.StatusOK, categories)
	}
}

func catalogError(c *gin.Context, err error) {
	if errors.Is(err, fakestore.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store api unavailable"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "catalog fetch failed"})
}
