package service

import (
	"context"

	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/hub"
)

// ChatService drives each realtime connection through its lifecycle and
// mediates all message, typing, and presence traffic.
type ChatService interface {
	HandleConnect(ctx context.Context, client *hub.Client) error
	HandleSendMessage(ctx context.Context, client *hub.Client, body string) error
	HandleTypingStart(ctx context.Context, client *hub.Client) error
	HandleTypingStop(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	OnlineCount() int
}

// UserService covers registration, login, and admin user management.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	GetUser(ctx context.Context, userID string) (*domain.UserResponse, error)
	ListUsers(ctx context.Context) ([]domain.UserResponse, error)
	UpdateUserRole(ctx context.Context, actor domain.Identity, targetID, role string) (*domain.UserResponse, error)
	DeleteUser(ctx context.Context, actor domain.Identity, targetID string) error
}

// ProductService covers catalog CRUD.
type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, actor domain.Identity, req *domain.CreateProductRequest) (*domain.Product, error)
	Update(ctx context.Context, actor domain.Identity, id string, req *domain.UpdateProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, actor domain.Identity, id string) (*domain.Product, error)
	SeedExamples(ctx context.Context, actor domain.Identity) ([]domain.Product, error)
}

// OrderService covers order creation and fulfilment.
type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Identity, items []domain.OrderItemInput) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListMine(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Identity, orderID, status string) (*domain.Order, error)
}

// ChatHistoryService serves the REST side of the message log.
type ChatHistoryService interface {
	GetHistory(ctx context.Context, limit, offset int) (*domain.ChatHistoryResponse, error)
	DeleteMessage(ctx context.Context, actor domain.Identity, id string) (*domain.ChatMessage, error)
	ClearHistory(ctx context.Context, actor domain.Identity) (int64, error)
}
