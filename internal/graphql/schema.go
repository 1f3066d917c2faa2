package graphql

import (
	"context"
	"errors"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/service"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("admin privileges required")
)

type contextKey string

// identityContextKey carries the authenticated identity into resolvers.
const identityContextKey contextKey = "graphql-identity"

// WithIdentity binds an identity to the resolver context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func identityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(domain.Identity)
	return identity, ok
}

// Schema wires the portal services into a GraphQL schema.
type Schema struct {
	schema   graphql.Schema
	products service.ProductService
	orders   service.OrderService
}

// NewSchema builds the executable schema over the given services.
func NewSchema(products service.ProductService, orders service.OrderService) (*Schema, error) {
	s := &Schema{products: products, orders: orders}

	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"price":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"category":    &graphql.Field{Type: graphql.String},
			"image":       &graphql.Field{Type: graphql.String},
			"stock":       &graphql.Field{Type: graphql.Int},
		},
	})

	orderProductType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OrderProduct",
		Fields: graphql.Fields{
			"productId": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.OrderItem).ProductID, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.OrderItem).Name, nil
				},
			},
			"quantity": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.OrderItem).Quantity, nil
				},
			},
			"price": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.OrderItem).Price, nil
				},
			},
		},
	})

	orderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.Order).UserID, nil
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewList(orderProductType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.Order).Items, nil
				},
			},
			"total":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"status": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.Order).CreatedAt.Format(time.RFC3339), nil
				},
			},
		},
	})

	orderProductInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "OrderProductInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"productId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"quantity":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"price":     &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getProducts": &graphql.Field{
				Type:    graphql.NewList(productType),
				Resolve: s.resolveProducts,
			},
			"getOrders": &graphql.Field{
				Type:    graphql.NewList(orderType),
				Resolve: s.resolveAllOrders,
			},
			"getMyOrders": &graphql.Field{
				Type:    graphql.NewList(orderType),
				Resolve: s.resolveMyOrders,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createOrder": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"products": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(orderProductInput))),
					},
				},
				Resolve: s.resolveCreateOrder,
			},
			"updateOrderStatus": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"orderId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"status":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: s.resolveUpdateOrderStatus,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return nil, err
	}

	s.schema = schema
	return s, nil
}

func (s *Schema) resolveProducts(p graphql.ResolveParams) (interface{}, error) {
	return s.products.List(p.Context)
}

func (s *Schema) resolveAllOrders(p graphql.ResolveParams) (interface{}, error) {
	identity, ok := identityFrom(p.Context)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !identity.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.orders.ListAll(p.Context)
}

func (s *Schema) resolveMyOrders(p graphql.ResolveParams) (interface{}, error) {
	identity, ok := identityFrom(p.Context)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.orders.ListMine(p.Context, identity.ID)
}

func (s *Schema) resolveCreateOrder(p graphql.ResolveParams) (interface{}, error) {
	identity, ok := identityFrom(p.Context)
	if !ok {
		return nil, ErrUnauthenticated
	}

	rawItems, _ := p.Args["products"].([]interface{})
	items := make([]domain.OrderItemInput, 0, len(rawItems))
	for _, raw := range rawItems {
		fields, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		item := domain.OrderItemInput{}
		if v, ok := fields["productId"].(string); ok {
			item.ProductID = v
		}
		if v, ok := fields["quantity"].(int); ok {
			item.Quantity = v
		}
		if v, ok := fields["price"].(float64); ok {
			item.Price = v
		}
		items = append(items, item)
	}

	order, err := s.orders.CreateOrder(p.Context, identity, items)
	if err != nil {
		return nil, err
	}
	return *order, nil
}

func (s *Schema) resolveUpdateOrderStatus(p graphql.ResolveParams) (interface{}, error) {
	identity, ok := identityFrom(p.Context)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !identity.IsAdmin() {
		return nil, ErrForbidden
	}

	orderID, _ := p.Args["orderId"].(string)
	status, _ := p.Args["status"].(string)

	order, err := s.orders.UpdateStatus(p.Context, identity, orderID, status)
	if err != nil {
		return nil, err
	}
	return *order, nil
}

// Execute runs one GraphQL request against the schema.
func (s *Schema) Execute(ctx context.Context, query string, variables map[string]interface{}, operationName string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: variables,
		OperationName:  operationName,
		Context:        ctx,
	})
}
