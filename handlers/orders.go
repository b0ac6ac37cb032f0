package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"razorkart/internal/orders"
	"razorkart/internal/store"
	"razorkart/internal/stores/kafka"
	"razorkart/internal/visibility"
	"razorkart/pkg/ctxmanage"
	"razorkart/pkg/logkey"
)

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	identity := identityOf(c)
	if identity == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.o.Checkout(c.Request.Context(), identity.ID, identity.ID)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyCart):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.Is(err, orders.ErrInsufficientStock):
			// The cart re-validates on the next read; the client should
			// refetch and show the adjusted quantities.
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Some items are no longer available in the requested quantity"})
		default:
			slog.Error("checkout failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		}
		return
	}

	go h.publishCheckoutEvents(traceId, result)

	slog.Info("checkout completed", slog.String(logkey.TraceID, traceId),
		slog.String("BuyerID", identity.ID), slog.Int("Orders", len(result.Orders)))
	c.JSON(http.StatusOK, gin.H{"message": "Checkout completed", "orders": result.Orders})
}

func (h *Handler) publishCheckoutEvents(traceId string, result orders.CheckoutResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, order := range result.Orders {
		event := kafka.OrderPlacedEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			StoreID:    order.StoreID,
			TotalPrice: order.TotalPrice,
			CreatedAt:  order.CreatedAt,
		}
		if err := h.k.Publish(ctx, kafka.TopicOrderPlaced, order.ID, event); err != nil {
			slog.Error("error publishing order-placed event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}
	for _, productID := range result.Depleted {
		event := kafka.StockDepletedEvent{ProductID: productID, DepletedAt: time.Now().UTC()}
		if err := h.k.Publish(ctx, kafka.TopicStockDepleted, productID, event); err != nil {
			slog.Error("error publishing stock-depleted event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}
}

func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.o.ListOrders(c.Request.Context())
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	list = visibility.FilterVisible(identityOf(c), visibility.EntityOrder, list)
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")

	order, err := h.o.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	if !visibility.CanRead(identityOf(c), visibility.EntityOrder, order) {
		// Report not-found rather than confirming the order exists.
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")

	var request struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || !orders.ValidStatus(request.Status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	order, err := h.o.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	if !visibility.CanMutate(identityOf(c), visibility.EntityOrder, order, visibility.ActionUpdate) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	updated, err := h.o.UpdateStatus(c.Request.Context(), orderID, request.Status)
	if err != nil {
		slog.Error("error updating order status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Order update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order updated", "order": updated})
}
