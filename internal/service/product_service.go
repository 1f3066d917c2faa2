package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aadrigaar/portal-productos/internal/audit"
	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

var (
	ErrNegativePrice = errors.New("price cannot be negative")
	ErrNegativeStock = errors.New("stock cannot be negative")
)

type productService struct {
	products repository.ProductRepository
}

// NewProductService creates the catalog service.
func NewProductService(products repository.ProductRepository) ProductService {
	return &productService{products: products}
}

func (s *productService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *productService) Create(ctx context.Context, actor domain.Identity, req *domain.CreateProductRequest) (*domain.Product, error) {
	if req.Price < 0 {
		return nil, ErrNegativePrice
	}
	if req.Stock < 0 {
		return nil, ErrNegativeStock
	}

	product := &domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		Image:       req.Image,
		Stock:       req.Stock,
		CreatedBy:   actor.ID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionCreateProduct, actor.ID, product.ID, "product created")
	return product, nil
}

func (s *productService) Update(ctx context.Context, actor domain.Identity, id string, req *domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, ErrNegativePrice
		}
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, ErrNegativeStock
		}
		product.Stock = *req.Stock
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionUpdateProduct, actor.ID, product.ID, "product updated")
	return product, nil
}

func (s *productService) Delete(ctx context.Context, actor domain.Identity, id string) (*domain.Product, error) {
	product, err := s.products.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionDeleteProduct, actor.ID, id, "product deleted")
	return product, nil
}

// SeedExamples inserts a small demo catalog. Existing products are left
// untouched; the examples are simply appended.
func (s *productService) SeedExamples(ctx context.Context, actor domain.Identity) ([]domain.Product, error) {
	examples := []domain.Product{
		{
			Name:        "Laptop Gaming Pro",
			Description: "High-end gaming laptop with a dedicated graphics card",
			Price:       1299.99,
			Category:    "Electronics",
			Stock:       10,
		},
		{
			Name:        "Smartphone X1",
			Description: "Latest-generation smartphone with a professional camera",
			Price:       799.99,
			Category:    "Electronics",
			Stock:       25,
		},
		{
			Name:        "Wireless Headphones",
			Description: "Bluetooth headphones with active noise cancellation",
			Price:       199.99,
			Category:    "Audio",
			Stock:       50,
		},
		{
			Name:        "4K Monitor",
			Description: "27-inch 4K monitor, ideal for design work",
			Price:       449.99,
			Category:    "Electronics",
			Stock:       15,
		},
		{
			Name:        "Sport Smartwatch",
			Description: "Smartwatch with GPS and heart-rate monitoring",
			Price:       299.99,
			Category:    "Wearables",
			Stock:       30,
		},
	}

	created := make([]domain.Product, 0, len(examples))
	for i := range examples {
		p := examples[i]
		p.CreatedBy = actor.ID
		if err := s.products.Create(ctx, &p); err != nil {
			return nil, err
		}
		created = append(created, p)
	}

	audit.Log(ctx, audit.ActionSeedProducts, actor.ID, "example products created")
	log.Ctx(ctx).Info().Int("count", len(created)).Msg("seeded example catalog")
	return created, nil
}
