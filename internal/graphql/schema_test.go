package graphql

import (
	"context"
	"testing"

	"github.com/aadrigaar/portal-productos/internal/domain"
)

type stubProductService struct {
	products []domain.Product
}

func (s *stubProductService) List(_ context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, nil
}

func (s *stubProductService) Create(_ context.Context, _ domain.Identity, _ *domain.CreateProductRequest) (*domain.Product, error) {
	return nil, nil
}

func (s *stubProductService) Update(_ context.Context, _ domain.Identity, _ string, _ *domain.UpdateProductRequest) (*domain.Product, error) {
	return nil, nil
}

func (s *stubProductService) Delete(_ context.Context, _ domain.Identity, _ string) (*domain.Product, error) {
	return nil, nil
}

func (s *stubProductService) SeedExamples(_ context.Context, _ domain.Identity) ([]domain.Product, error) {
	return nil, nil
}

type stubOrderService struct {
	created     *domain.Order
	createInput []domain.OrderItemInput
	all         []domain.Order
	mine        []domain.Order
}

func (s *stubOrderService) CreateOrder(_ context.Context, actor domain.Identity, items []domain.OrderItemInput) (*domain.Order, error) {
	s.createInput = items
	order := &domain.Order{
		ID:     "order-1",
		UserID: actor.ID,
		Status: domain.OrderStatusPending,
		Total:  42,
	}
	s.created = order
	return order, nil
}

func (s *stubOrderService) ListAll(_ context.Context) ([]domain.Order, error) {
	return s.all, nil
}

func (s *stubOrderService) ListMine(_ context.Context, _ string) ([]domain.Order, error) {
	return s.mine, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ domain.Identity, orderID, status string) (*domain.Order, error) {
	return &domain.Order{ID: orderID, Status: status}, nil
}

func newTestSchema(t *testing.T, products *stubProductService, orders *stubOrderService) *Schema {
	t.Helper()
	schema, err := NewSchema(products, orders)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func TestGetProductsIsPublic(t *testing.T) {
	products := &stubProductService{products: []domain.Product{
		{ID: "p1", Name: "Laptop", Price: 999.99},
	}}
	schema := newTestSchema(t, products, &stubOrderService{})

	result := schema.Execute(context.Background(), `{ getProducts { id name price } }`, nil, "")
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %v", result.Errors)
	}

	data := result.Data.(map[string]interface{})
	list := data["getProducts"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("got %d products, want 1", len(list))
	}
	first := list[0].(map[string]interface{})
	if first["name"] != "Laptop" {
		t.Errorf("product = %+v", first)
	}
}

func TestGetMyOrdersRequiresAuth(t *testing.T) {
	schema := newTestSchema(t, &stubProductService{}, &stubOrderService{})

	result := schema.Execute(context.Background(), `{ getMyOrders { id } }`, nil, "")
	if len(result.Errors) == 0 {
		t.Fatal("expected auth error")
	}

	ctx := WithIdentity(context.Background(), domain.Identity{ID: "u1", Role: domain.RoleUser})
	result = schema.Execute(ctx, `{ getMyOrders { id } }`, nil, "")
	if len(result.Errors) != 0 {
		t.Fatalf("errors with identity: %v", result.Errors)
	}
}

func TestGetOrdersRequiresAdmin(t *testing.T) {
	orders := &stubOrderService{all: []domain.Order{{ID: "o1", Status: domain.OrderStatusPending}}}
	schema := newTestSchema(t, &stubProductService{}, orders)

	userCtx := WithIdentity(context.Background(), domain.Identity{ID: "u1", Role: domain.RoleUser})
	result := schema.Execute(userCtx, `{ getOrders { id } }`, nil, "")
	if len(result.Errors) == 0 {
		t.Fatal("expected forbidden error for non-admin")
	}

	adminCtx := WithIdentity(context.Background(), domain.Identity{ID: "a1", Role: domain.RoleAdmin})
	result = schema.Execute(adminCtx, `{ getOrders { id status } }`, nil, "")
	if len(result.Errors) != 0 {
		t.Fatalf("errors as admin: %v", result.Errors)
	}
}

func TestCreateOrderMutation(t *testing.T) {
	orders := &stubOrderService{}
	schema := newTestSchema(t, &stubProductService{}, orders)

	query := `mutation {
		createOrder(products: [{productId: "p1", quantity: 2}]) {
			id userId total status
		}
	}`

	result := schema.Execute(context.Background(), query, nil, "")
	if len(result.Errors) == 0 {
		t.Fatal("expected auth error without identity")
	}

	ctx := WithIdentity(context.Background(), domain.Identity{ID: "u1", Role: domain.RoleUser})
	result = schema.Execute(ctx, query, nil, "")
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %v", result.Errors)
	}

	if len(orders.createInput) != 1 || orders.createInput[0].ProductID != "p1" || orders.createInput[0].Quantity != 2 {
		t.Errorf("service received %+v", orders.createInput)
	}

	data := result.Data.(map[string]interface{})
	created := data["createOrder"].(map[string]interface{})
	if created["userId"] != "u1" || created["status"] != domain.OrderStatusPending {
		t.Errorf("created = %+v", created)
	}
}

func TestUpdateOrderStatusRequiresAdmin(t *testing.T) {
	schema := newTestSchema(t, &stubProductService{}, &stubOrderService{})
	query := `mutation { updateOrderStatus(orderId: "o1", status: "shipped") { id status } }`

	userCtx := WithIdentity(context.Background(), domain.Identity{ID: "u1", Role: domain.RoleUser})
	result := schema.Execute(userCtx, query, nil, "")
	if len(result.Errors) == 0 {
		t.Fatal("expected forbidden error for non-admin")
	}

	adminCtx := WithIdentity(context.Background(), domain.Identity{ID: "a1", Role: domain.RoleAdmin})
	result = schema.Execute(adminCtx, query, nil, "")
	if len(result.Errors) != 0 {
		t.Fatalf("errors as admin: %v", result.Errors)
	}
	data := result.Data.(map[string]interface{})
	updated := data["updateOrderStatus"].(map[string]interface{})
	if updated["status"] != domain.OrderStatusShipped {
		t.Errorf("updated = %+v", updated)
	}
}
