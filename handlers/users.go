package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"razorkart/internal/store"
	"razorkart/internal/stores/kafka"
	"razorkart/internal/users"
	"razorkart/pkg/ctxmanage"
	"razorkart/pkg/logkey"
)

const tokenValidity = 24 * time.Hour

func (h *Handler) Signup(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(newUser); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signup details"})
		return
	}

	// Public signup never grants privileged roles; those come from an admin
	// reassigning the role afterwards.
	if newUser.Role != "" && newUser.Role != "buyer" && newUser.Role != "seller" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be buyer or seller"})
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
			return
		}
		slog.Error("error creating user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed"})
		return
	}

	go func() {
		event := kafka.AccountCreatedEvent{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.k.Publish(ctx, kafka.TopicAccountCreated, user.ID, event); err != nil {
			slog.Error("error publishing account-created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"message": "User created successfully",
		"user":    user.Public(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		slog.Error("error authenticating user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	token, err := h.a.GenerateToken(user.ID, user.Role, user.Email, user.StoreID, tokenValidity)
	if err != nil {
		slog.Error("error generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Public()})
}

func (h *Handler) ListUsers(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.u.ListUsers(c.Request.Context())
	if err != nil {
		slog.Error("error listing users", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	publicUsers := make([]users.Public, 0, len(list))
	for _, u := range list {
		publicUsers = append(publicUsers, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": publicUsers})
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	userID := c.Param("id")
	var request struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.u.UpdateRole(c.Request.Context(), userID, request.Role)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, users.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		default:
			slog.Error("error updating role", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Role update failed"})
		}
		return
	}

	slog.Info("user role updated", slog.String(logkey.TraceID, traceId),
		slog.String("UserID", userID), slog.String("Role", request.Role))
	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully", "user": user.Public()})
}
