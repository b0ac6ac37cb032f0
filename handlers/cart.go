package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"razorkart/internal/cart"
	"razorkart/pkg/ctxmanage"
	"razorkart/pkg/logkey"
)

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	key, ok := cartKeyOf(c)
	if !ok {
		slog.Error("no cart key on request", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Sign in or supply an X-Session-ID header"})
		return
	}

	var request struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if request.ProductID == "" || request.Quantity <= 0 {
		slog.Error("invalid product ID or quantity", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID and quantity must be valid"})
		return
	}

	result, err := h.cart.AddItem(c.Request.Context(), key, request.ProductID, request.Quantity)
	if err != nil {
		h.cartError(c, traceId, err, "error adding product to cart")
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String("ProductID", request.ProductID), slog.Int("Quantity", result.Item.Quantity))

	response := gin.H{"message": "Product added to cart successfully", "item": result.Item}
	if result.Limited {
		response["warning"] = "Quantity reduced to available stock"
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	key, ok := cartKeyOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Sign in or supply an X-Session-ID header"})
		return
	}

	var request struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if request.ProductID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID is required"})
		return
	}

	result, err := h.cart.UpdateQuantity(c.Request.Context(), key, request.ProductID, request.Quantity)
	if err != nil {
		h.cartError(c, traceId, err, "error updating cart item")
		return
	}

	response := gin.H{"message": "Cart item updated", "item": result.Item}
	if result.Limited {
		response["warning"] = "Quantity reduced to available stock"
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	key, ok := cartKeyOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Sign in or supply an X-Session-ID header"})
		return
	}

	productID := c.Param("productID")
	if productID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID is required"})
		return
	}

	if err := h.cart.RemoveItem(c.Request.Context(), key, productID); err != nil {
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove cart item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart"})
}

func (h *Handler) GetCartItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	key, ok := cartKeyOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Sign in or supply an X-Session-ID header"})
		return
	}

	summary, err := h.cart.GetCart(c.Request.Context(), key)
	if err != nil {
		slog.Error("error fetching cart items", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch cart items"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// cartError maps the cart error taxonomy onto HTTP statuses.
func (h *Handler) cartError(c *gin.Context, traceId string, err error, logMsg string) {
	slog.Error(logMsg, slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))

	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
	case errors.Is(err, cart.ErrLineNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product is not in the cart"})
	case errors.Is(err, cart.ErrOutOfStock):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Product is out of stock"})
	case errors.Is(err, cart.ErrInvalidQuantity):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Quantity must be at least 1"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Cart operation failed"})
	}
}
