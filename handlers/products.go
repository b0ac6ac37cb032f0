package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"razorkart/internal/auth"
	"razorkart/internal/products"
	"razorkart/internal/store"
	"razorkart/internal/visibility"
	"razorkart/pkg/ctxmanage"
	"razorkart/pkg/logkey"
)

func (h *Handler) CreateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newProduct products.NewProduct
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(newProduct); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				switch vErr.Tag() {
				case "required":
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value missing"})
					return
				case "gt", "gte":
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value is too small"})
					return
				}
			}
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	identity := identityOf(c)
	ownerStoreID := identity.StoreID
	if identity.Role == auth.RoleAdmin {
		// Admins may create listings on behalf of a store.
		ownerStoreID = c.Query("store_id")
	}
	if ownerStoreID == "" {
		slog.Error("no store for product creation", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No store to own the product"})
		return
	}

	intended := products.Product{OwnerStoreID: ownerStoreID}
	if !visibility.CanMutate(identity, visibility.EntityProduct, intended, visibility.ActionCreate) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	insertedProduct, err := h.p.InsertProduct(c.Request.Context(), newProduct, ownerStoreID)
	if err != nil {
		slog.Error("error in inserting the product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Product Creation Failed"})
		return
	}

	c.JSON(http.StatusOK, insertedProduct)
}

func (h *Handler) GetProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	productID := c.Param("id")

	product, err := h.p.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in retrieving product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID := c.Param("id")
	if productID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	currentProduct, err := h.p.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in retrieving product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	if !visibility.CanMutate(identityOf(c), visibility.EntityProduct, currentProduct, visibility.ActionUpdate) {
		slog.Error("mutation denied", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	var updatedProduct products.UpdateProduct
	if err := c.ShouldBindJSON(&updatedProduct); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if err := h.validate.Struct(updatedProduct); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	product, err := h.p.UpdateProductInDB(c.Request.Context(), productID, updatedProduct)
	if err != nil {
		slog.Error("error in updating the product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Product update failed"})
		return
	}

	slog.Info("product updated successfully", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	productID := c.Param("id")

	product, err := h.p.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in retrieving product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	if !visibility.CanMutate(identityOf(c), visibility.EntityProduct, product, visibility.ActionDelete) {
		slog.Error("mutation denied", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := h.p.DeleteProductFromDB(c.Request.Context(), productID); err != nil {
		slog.Error("error in deleting the product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Product deletion failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product successfully deleted"})
}

func (h *Handler) ListProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	nameFilter := c.Query("name")
	categoryFilter := c.Query("category")
	limit := c.DefaultQuery("limit", "10")
	offset := c.DefaultQuery("offset", "0")

	limitInt, err := strconv.Atoi(limit)
	if err != nil || limitInt <= 0 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	offsetInt, err := strconv.Atoi(offset)
	if err != nil || offsetInt < 0 {
		slog.Error("invalid offset parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}

	list, err := h.p.ListProductsFromDB(c.Request.Context(), nameFilter, categoryFilter, limitInt, offsetInt)
	if err != nil {
		slog.Error("error in fetching products", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	// Sellers see their own storefront; everyone else browses the catalog.
	list = visibility.FilterVisible(identityOf(c), visibility.EntityProduct, list)

	c.JSON(http.StatusOK, gin.H{"products": list})
}

func (h *Handler) ProductStock(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID := c.Param("id")
	if productID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID is required"})
		return
	}

	stock, price, err := h.p.GetProductStock(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		slog.Error("error in fetching product stock", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve product stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": productID, "stock": stock, "price": price})
}
