package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aadrigaar/portal-productos/internal/auth"
	"github.com/aadrigaar/portal-productos/internal/domain"
	gqlschema "github.com/aadrigaar/portal-productos/internal/graphql"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/internal/service"
	"github.com/aadrigaar/portal-productos/pkg/response"
)

// HTTPHandler registers the REST and GraphQL surface of the portal.
type HTTPHandler struct {
	users      service.UserService
	products   service.ProductService
	orders     service.OrderService
	history    service.ChatHistoryService
	chat       service.ChatService
	middleware *auth.Middleware
	schema     *gqlschema.Schema
	dbPing     func(ctx context.Context) error
	startedAt  time.Time
}

// NewHTTPHandler creates the HTTP handler.
func NewHTTPHandler(
	users service.UserService,
	products service.ProductService,
	orders service.OrderService,
	history service.ChatHistoryService,
	chat service.ChatService,
	middleware *auth.Middleware,
	schema *gqlschema.Schema,
	dbPing func(ctx context.Context) error,
) *HTTPHandler {
	return &HTTPHandler{
		users:      users,
		products:   products,
		orders:     orders,
		history:    history,
		chat:       chat,
		middleware: middleware,
		schema:     schema,
		dbPing:     dbPing,
		startedAt:  time.Now(),
	}
}

// Register mounts every route on the engine.
func (h *HTTPHandler) Register(router *gin.Engine, ws *WSHandler) {
	router.GET("/api/health", h.health)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.GET("/verify", h.middleware.RequireAuth(), h.verify)
		authGroup.GET("/profile", h.middleware.RequireAuth(), h.profile)
	}

	usersGroup := router.Group("/api/users", h.middleware.RequireAdmin())
	{
		usersGroup.GET("", h.listUsers)
		usersGroup.PUT("/:id/role", h.updateUserRole)
		usersGroup.DELETE("/:id", h.deleteUser)
	}

	productsGroup := router.Group("/api/products")
	{
		productsGroup.GET("", h.listProducts)
		productsGroup.GET("/:id", h.getProduct)
		productsGroup.POST("", h.middleware.RequireAdmin(), h.createProduct)
		productsGroup.PUT("/:id", h.middleware.RequireAdmin(), h.updateProduct)
		productsGroup.DELETE("/:id", h.middleware.RequireAdmin(), h.deleteProduct)
		productsGroup.POST("/seed-examples", h.middleware.RequireAdmin(), h.seedProducts)
	}

	chatGroup := router.Group("/api/chat")
	{
		chatGroup.GET("/history", h.chatHistory)
		chatGroup.DELETE("/messages/:id", h.middleware.RequireAdmin(), h.deleteMessage)
		chatGroup.DELETE("/history", h.middleware.RequireAdmin(), h.clearHistory)
	}

	router.POST("/graphql", h.middleware.OptionalAuth(), h.graphql)
	router.GET("/ws", ws.Handle)
}

func (h *HTTPHandler) health(c *gin.Context) {
	dbStatus := "ok"
	if h.dbPing != nil {
		if err := h.dbPing(c.Request.Context()); err != nil {
			dbStatus = "unavailable"
		}
	}

	response.Success(c, gin.H{
		"status":       "ok",
		"database":     dbStatus,
		"uptime":       time.Since(h.startedAt).String(),
		"users_online": h.chat.OnlineCount(),
	})
}

// Auth

func (h *HTTPHandler) register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid registration data: "+err.Error())
		return
	}

	result, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, result)
}

func (h *HTTPHandler) login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid login data: "+err.Error())
		return
	}

	result, err := h.users.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.InternalError(c, "failed to log in")
		return
	}

	response.Success(c, result)
}

func (h *HTTPHandler) verify(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)
	response.Success(c, gin.H{"valid": true, "user": identity})
}

func (h *HTTPHandler) profile(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to load profile")
		return
	}
	response.Success(c, user)
}

// Users (admin)

func (h *HTTPHandler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list users")
		return
	}
	response.Success(c, users)
}

func (h *HTTPHandler) updateUserRole(c *gin.Context) {
	var req domain.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid role data: "+err.Error())
		return
	}

	identity, _ := auth.GetIdentity(c)
	user, err := h.users.UpdateUserRole(c.Request.Context(), identity, c.Param("id"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDemotion), errors.Is(err, domain.ErrInvalidRole):
			response.BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrUserNotFound):
			response.NotFound(c, "user not found")
		default:
			response.InternalError(c, "failed to update role")
		}
		return
	}

	response.Success(c, user)
}

func (h *HTTPHandler) deleteUser(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)
	if err := h.users.DeleteUser(c.Request.Context(), identity, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDeletion):
			response.BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrUserNotFound):
			response.NotFound(c, "user not found")
		default:
			response.InternalError(c, "failed to delete user")
		}
		return
	}

	response.Success(c, gin.H{"message": "user deleted"})
}

// Products

func (h *HTTPHandler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list products")
		return
	}
	response.Success(c, products)
}

func (h *HTTPHandler) getProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		response.InternalError(c, "failed to load product")
		return
	}
	response.Success(c, product)
}

func (h *HTTPHandler) createProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid product data: "+err.Error())
		return
	}

	identity, _ := auth.GetIdentity(c)
	product, err := h.products.Create(c.Request.Context(), identity, &req)
	if err != nil {
		if errors.Is(err, service.ErrNegativePrice) || errors.Is(err, service.ErrNegativeStock) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to create product")
		return
	}

	response.Created(c, product)
}

func (h *HTTPHandler) updateProduct(c *gin.Context) {
	var req domain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid product data: "+err.Error())
		return
	}

	identity, _ := auth.GetIdentity(c)
	product, err := h.products.Update(c.Request.Context(), identity, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			response.NotFound(c, "product not found")
		case errors.Is(err, service.ErrNegativePrice), errors.Is(err, service.ErrNegativeStock):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to update product")
		}
		return
	}

	response.Success(c, product)
}

func (h *HTTPHandler) deleteProduct(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)
	product, err := h.products.Delete(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		response.InternalError(c, "failed to delete product")
		return
	}

	response.Success(c, gin.H{"message": "product deleted", "product": product})
}

func (h *HTTPHandler) seedProducts(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)
	products, err := h.products.SeedExamples(c.Request.Context(), identity)
	if err != nil {
		response.InternalError(c, "failed to seed example products")
		return
	}

	response.Created(c, gin.H{"message": "example products created", "products": products})
}

// Chat history

func (h *HTTPHandler) chatHistory(c *gin.Context) {
	limit := queryInt(c, "limit", 0)
	offset := queryInt(c, "offset", 0)

	page, err := h.history.GetHistory(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalError(c, "failed to load chat history")
		return
	}
	response.Success(c, page)
}

func (h *HTTPHandler) deleteMessage(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)
	msg, err := h.history.DeleteMessage(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			response.NotFound(c, "message not found")
			return
		}
		response.InternalError(c, "failed to delete message")
		return
	}

	response.Success(c, gin.H{"message": "chat message deleted", "deleted": msg})
}

func (h *HTTPHandler) clearHistory(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)
	count, err := h.history.ClearHistory(c.Request.Context(), identity)
	if err != nil {
		response.InternalError(c, "failed to clear chat history")
		return
	}

	response.Success(c, gin.H{"message": "chat history cleared", "deleted_count": count})
}

// GraphQL

type graphqlRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

func (h *HTTPHandler) graphql(c *gin.Context) {
	var req graphqlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid graphql request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if identity, ok := auth.GetIdentity(c); ok {
		ctx = gqlschema.WithIdentity(ctx, identity)
	}

	result := h.schema.Execute(ctx, req.Query, req.Variables, req.OperationName)
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
