package service

import (
	"context"
	"errors"

	"github.com/aadrigaar/portal-productos/internal/audit"
	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/repository"
)

var (
	ErrEmptyOrder      = errors.New("order must contain at least one product")
	ErrInvalidQuantity = errors.New("product quantity must be positive")
	ErrInvalidStatus   = errors.New("invalid order status")
)

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
}

// NewOrderService creates the order service.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository) OrderService {
	return &orderService{orders: orders, products: products}
}

// CreateOrder places an order for the acting user. Product names and
// prices are captured into the order lines at creation time.
func (s *orderService) CreateOrder(ctx context.Context, actor domain.Identity, items []domain.OrderItemInput) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	lines := make([]domain.OrderItem, 0, len(items))
	total := 0.0
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		price := item.Price
		if price == 0 {
			price = product.Price
		}

		lines = append(lines, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     price,
		})
		total += price * float64(item.Quantity)
	}

	order := &domain.Order{
		UserID: actor.ID,
		Items:  lines,
		Total:  total,
		Status: domain.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionCreateOrder, actor.ID, order.ID, "order created")
	return order, nil
}

// ListAll returns every order. Admin only, enforced by the caller.
func (s *orderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// ListMine returns the orders belonging to one user.
func (s *orderService) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus moves an order to a new fulfilment status.
func (s *orderService) UpdateStatus(ctx context.Context, actor domain.Identity, orderID, status string) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionUpdateOrder, actor.ID, orderID, "order status updated to "+status)
	return order, nil
}
