package repository

import (
	"context"
	"errors"

	"github.com/aadrigaar/portal-productos/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrMessageNotFound = errors.New("message not found")
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// ProductRepository defines the interface for product persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) (*domain.Product, error)
}

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
}

// MessageRepository is the durable, append-only, queryable-by-recency
// store of chat messages.
type MessageRepository interface {
	// Append persists a message, assigning its id and timestamp.
	Append(ctx context.Context, msg *domain.ChatMessage) error
	// QueryRecent returns up to limit messages for a room, newest first.
	QueryRecent(ctx context.Context, room string, limit int) ([]domain.ChatMessage, error)
	// QueryPage returns a history page, newest first, with an offset.
	QueryPage(ctx context.Context, room string, limit, offset int) ([]domain.ChatMessage, error)
	// Delete removes one message by id.
	Delete(ctx context.Context, id string) (*domain.ChatMessage, error)
	// Clear removes all messages and reports how many were deleted.
	Clear(ctx context.Context) (int64, error)
}
