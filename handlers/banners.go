package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"razorkart/internal/banners"
	"razorkart/internal/store"
	"razorkart/internal/visibility"
	"razorkart/pkg/ctxmanage"
	"razorkart/pkg/logkey"
)

func (h *Handler) CreateBanner(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newBanner banners.NewBanner
	if err := c.ShouldBindJSON(&newBanner); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(newBanner); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Title and a valid image URL are required"})
		return
	}

	banner, err := h.b.InsertBanner(c.Request.Context(), newBanner)
	if err != nil {
		slog.Error("error creating banner", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create banner"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Banner created", "banner": banner})
}

func (h *Handler) ListBanners(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.b.ListBanners(c.Request.Context())
	if err != nil {
		slog.Error("error listing banners", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch banners"})
		return
	}

	// Anonymous callers and regular shoppers see live banners only.
	list = visibility.FilterVisible(identityOf(c), visibility.EntityBanner, list)
	c.JSON(http.StatusOK, gin.H{"banners": list})
}

func (h *Handler) UpdateBanner(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	bannerID := c.Param("id")

	var newBanner banners.NewBanner
	if err := c.ShouldBindJSON(&newBanner); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(newBanner); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Title and a valid image URL are required"})
		return
	}

	banner, err := h.b.UpdateBanner(c.Request.Context(), bannerID, newBanner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Banner not found"})
			return
		}
		slog.Error("error updating banner", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update banner"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Banner updated", "banner": banner})
}

func (h *Handler) DeleteBanner(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	bannerID := c.Param("id")

	if err := h.b.DeleteBanner(c.Request.Context(), bannerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Banner not found"})
			return
		}
		slog.Error("error deleting banner", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete banner"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Banner deleted"})
}
