package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"razorkart/internal/inquiries"
	"razorkart/internal/store"
	"razorkart/internal/visibility"
	"razorkart/pkg/ctxmanage"
	"razorkart/pkg/logkey"
)

func (h *Handler) CreateInquiry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newInquiry inquiries.NewInquiry
	if err := c.ShouldBindJSON(&newInquiry); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(newInquiry); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email, subject and message are required"})
		return
	}

	identity := identityOf(c)
	submitterID := ""
	if identity != nil {
		submitterID = identity.ID
	}

	inquiry, err := h.i.InsertInquiry(c.Request.Context(), newInquiry, submitterID)
	if err != nil {
		slog.Error("error creating inquiry", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit inquiry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Inquiry submitted", "inquiry": inquiry})
}

func (h *Handler) ListInquiries(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.i.ListInquiries(c.Request.Context())
	if err != nil {
		slog.Error("error listing inquiries", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inquiries"})
		return
	}

	list = visibility.FilterVisible(identityOf(c), visibility.EntityInquiry, list)
	c.JSON(http.StatusOK, gin.H{"inquiries": list})
}

func (h *Handler) GetInquiry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	inquiryID := c.Param("id")

	inquiry, err := h.i.GetInquiryByID(c.Request.Context(), inquiryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		slog.Error("error fetching inquiry", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inquiry"})
		return
	}

	if !visibility.CanRead(identityOf(c), visibility.EntityInquiry, inquiry) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
		return
	}

	c.JSON(http.StatusOK, inquiry)
}

func (h *Handler) ReplyToInquiry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	inquiryID := c.Param("id")

	var request struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Message == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	identity := identityOf(c)
	inquiry, err := h.i.AddReply(c.Request.Context(), inquiryID, identity.ID, request.Message)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		slog.Error("error replying to inquiry", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to add reply"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reply added", "inquiry": inquiry})
}

func (h *Handler) UpdateInquiryStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	inquiryID := c.Param("id")

	var request struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || !inquiries.ValidStatus(request.Status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	inquiry, err := h.i.UpdateStatus(c.Request.Context(), inquiryID, request.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		slog.Error("error updating inquiry status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inquiry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "inquiry": inquiry})
}

// DeleteInquiry is reachable by any authenticated role: submitters may
// withdraw their own tickets, so the access decision happens against the
// record rather than in the route table.
func (h *Handler) DeleteInquiry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	inquiryID := c.Param("id")

	inquiry, err := h.i.GetInquiryByID(c.Request.Context(), inquiryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		slog.Error("error fetching inquiry", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inquiry"})
		return
	}

	if !visibility.CanMutate(identityOf(c), visibility.EntityInquiry, inquiry, visibility.ActionDelete) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := h.i.DeleteInquiry(c.Request.Context(), inquiryID); err != nil {
		slog.Error("error deleting inquiry", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete inquiry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Inquiry deleted"})
}
