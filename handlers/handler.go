package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"razorkart/internal/auth"
	"razorkart/internal/banners"
	"razorkart/internal/cart"
	"razorkart/internal/inquiries"
	"razorkart/internal/orders"
	"razorkart/internal/products"
	"razorkart/internal/stores/kafka"
	"razorkart/internal/users"
	"razorkart/middleware"
	"razorkart/pkg/ctxmanage"
)

type Handler struct {
	validate *validator.Validate
	a        *auth.Keys
	u        *users.Conf
	p        *products.Conf
	o        *orders.Conf
	i        *inquiries.Conf
	b        *banners.Conf
	cart     *cart.Conf
	k        *kafka.Conf
}

func NewHandler(a *auth.Keys, u *users.Conf, p *products.Conf, o *orders.Conf,
	i *inquiries.Conf, b *banners.Conf, cartConf *cart.Conf, k *kafka.Conf) *Handler {
	return &Handler{
		validate: validator.New(),
		a:        a,
		u:        u,
		p:        p,
		o:        o,
		i:        i,
		b:        b,
		cart:     cartConf,
		k:        k,
	}
}

func API(endpointPrefix string, a *auth.Keys, h *Handler) *gin.Engine {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(a)
	if err != nil {
		panic(err)
	}

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		// Accounts.
		v1.POST("/users/signup", h.Signup)
		v1.POST("/users/login", h.Login)

		// Catalog: browsing is public, identity (when present) scopes the
		// listing for sellers.
		catalog := v1.Group("/products")
		catalog.Use(m.OptionalAuthentication())
		{
			catalog.GET("/list", h.ListProducts)
			catalog.GET("/view/:id", h.GetProduct)
			catalog.GET("/stock/:id", h.ProductStock)
		}

		// Banners: public listing shows live banners only.
		bannersGroup := v1.Group("/banners")
		bannersGroup.Use(m.OptionalAuthentication())
		{
			bannersGroup.GET("/list", h.ListBanners)
		}

		// Inquiries can be filed without an account.
		inquiriesGroup := v1.Group("/inquiries")
		inquiriesGroup.Use(m.OptionalAuthentication())
		{
			inquiriesGroup.POST("/create", h.CreateInquiry)
			inquiriesGroup.GET("/list", h.ListInquiries)
			inquiriesGroup.GET("/view/:id", h.GetInquiry)
		}

		// Carts work for signed-in users and anonymous sessions alike.
		cartGroup := v1.Group("/cart")
		cartGroup.Use(m.OptionalAuthentication())
		{
			cartGroup.POST("/add-item", h.AddToCart)
			cartGroup.PATCH("/update-item", h.UpdateCartItem)
			cartGroup.DELETE("/remove-item/:productID", h.RemoveCartItem)
			cartGroup.GET("/items", h.GetCartItems)
		}

		// Everything below needs a verified identity.
		authed := v1.Group("")
		authed.Use(m.Authentication())
		{
			authed.POST("/products/create", m.Authorize(h.CreateProduct, auth.RoleSeller, auth.RoleAdmin))
			authed.PUT("/products/update/:id", m.Authorize(h.UpdateProduct, auth.RoleSeller, auth.RoleAdmin))
			authed.DELETE("/products/delete/:id", m.Authorize(h.DeleteProduct, auth.RoleSeller, auth.RoleAdmin))

			authed.POST("/orders/checkout", m.Authorize(h.Checkout, auth.RoleBuyer))
			authed.GET("/orders/list", h.ListOrders)
			authed.GET("/orders/view/:id", h.GetOrder)
			authed.PATCH("/orders/status/:id", m.Authorize(h.UpdateOrderStatus, auth.RoleSeller, auth.RoleAdmin))

			authed.POST("/inquiries/reply/:id", m.Authorize(h.ReplyToInquiry, auth.RoleInquiryManager, auth.RoleAdmin))
			authed.PATCH("/inquiries/status/:id", m.Authorize(h.UpdateInquiryStatus, auth.RoleInquiryManager, auth.RoleAdmin))
			authed.DELETE("/inquiries/delete/:id", h.DeleteInquiry)

			authed.POST("/banners/create", m.Authorize(h.CreateBanner, auth.RoleContentManager, auth.RoleAdmin))
			authed.PUT("/banners/update/:id", m.Authorize(h.UpdateBanner, auth.RoleContentManager, auth.RoleAdmin))
			authed.DELETE("/banners/delete/:id", m.Authorize(h.DeleteBanner, auth.RoleContentManager, auth.RoleAdmin))

			authed.GET("/users/list", m.Authorize(h.ListUsers, auth.RoleAdmin))
			authed.PATCH("/users/role/:id", m.Authorize(h.UpdateUserRole, auth.RoleAdmin))
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	fmt.Println("healthCheck handler ", traceId)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// identityOf converts request claims into the identity context the
// visibility rules take. Nil means anonymous.
func identityOf(c *gin.Context) *auth.Identity {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		return nil
	}
	return claims.Identity()
}

// cartKeyOf resolves the cart key for this request: the authenticated user
// id, or the anonymous session id from the X-Session-ID header.
func cartKeyOf(c *gin.Context) (string, bool) {
	if claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims); ok {
		return claims.Subject, true
	}
	if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
		return "session:" + sessionID, true
	}
	return "", false
}
