package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aadrigaar/portal-productos/internal/domain"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create creates a new order with its items.
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	order.ID = uuid.New().String()
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}

	model := domain.OrderToModel(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves an order with its items.
func (r *GormOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var model domain.OrderModel
	result := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListAll returns every order, newest first.
func (r *GormOrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	var models []domain.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(models), nil
}

// ListByUser returns one user's orders, newest first.
func (r *GormOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var models []domain.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(models), nil
}

// UpdateStatus changes an order's status and returns the updated order.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	result := r.db.WithContext(ctx).Model(&domain.OrderModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrOrderNotFound
	}
	return r.GetByID(ctx, id)
}

func ordersToDomain(models []domain.OrderModel) []domain.Order {
	orders := make([]domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, *models[i].ToDomain())
	}
	return orders
}
