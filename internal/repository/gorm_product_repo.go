package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aadrigaar/portal-productos/internal/domain"
)

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM-based product repository.
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create creates a new product.
func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = uuid.New().String()

	model := domain.ProductToModel(product)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	product.CreatedAt = model.CreatedAt
	product.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves a product by ID.
func (r *GormProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var model domain.ProductModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List returns all products, newest first.
func (r *GormProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	var models []domain.ProductModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(models))
	for i := range models {
		products = append(products, *models[i].ToDomain())
	}
	return products, nil
}

// Update persists product field changes.
func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product) error {
	model := domain.ProductToModel(product)
	result := r.db.WithContext(ctx).Model(&domain.ProductModel{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":        model.Name,
			"description": model.Description,
			"price":       model.Price,
			"category":    model.Category,
			"image":       model.Image,
			"stock":       model.Stock,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	var updated domain.ProductModel
	r.db.WithContext(ctx).First(&updated, "id = ?", product.ID)
	product.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete removes a product and returns the deleted row.
func (r *GormProductRepository) Delete(ctx context.Context, id string) (*domain.Product, error) {
	product, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&domain.ProductModel{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return product, nil
}
