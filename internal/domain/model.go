package domain

import (
	"time"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     string    `gorm:"type:varchar(30);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(16);not null;default:user;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

// ToDomain converts UserModel to a domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserToModel converts a domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ProductModel is the GORM model for the products table.
type ProductModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text;not null"`
	Price       float64   `gorm:"not null"`
	Category    string    `gorm:"type:varchar(100);not null;index"`
	Image       string    `gorm:"type:varchar(500)"`
	Stock       int       `gorm:"not null;default:0"`
	CreatedBy   string    `gorm:"type:varchar(36);index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (ProductModel) TableName() string { return "products" }

// ToDomain converts ProductModel to a domain Product.
func (m *ProductModel) ToDomain() *Product {
	return &Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Category:    m.Category,
		Image:       m.Image,
		Stock:       m.Stock,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ProductToModel converts a domain Product to ProductModel.
func ProductToModel(p *Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Image:       p.Image,
		Stock:       p.Stock,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// OrderModel is the GORM model for the orders table.
type OrderModel struct {
	ID        string           `gorm:"type:varchar(36);primaryKey"`
	UserID    string           `gorm:"type:varchar(36);not null;index"`
	Total     float64          `gorm:"not null"`
	Status    string           `gorm:"type:varchar(20);not null;default:pending;index"`
	Items     []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel is the GORM model for one product line in an order.
type OrderItemModel struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	OrderID   string  `gorm:"type:varchar(36);not null;index"`
	ProductID string  `gorm:"type:varchar(36);not null"`
	Name      string  `gorm:"type:varchar(255)"`
	Quantity  int     `gorm:"not null"`
	Price     float64 `gorm:"not null"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// ToDomain converts OrderModel to a domain Order.
func (m *OrderModel) ToDomain() *Order {
	items := make([]OrderItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return &Order{
		ID:        m.ID,
		UserID:    m.UserID,
		Items:     items,
		Total:     m.Total,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// OrderToModel converts a domain Order to OrderModel.
func OrderToModel(o *Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemModel{
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return &OrderModel{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		Status:    o.Status,
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// ChatMessageModel is the GORM model for the chat_messages table.
type ChatMessageModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Username  string    `gorm:"type:varchar(30);not null"`
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	UserRole  string    `gorm:"type:varchar(16);not null;default:user"`
	Body      string    `gorm:"type:varchar(500);not null;column:message"`
	Room      string    `gorm:"type:varchar(100);not null;default:general;index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (ChatMessageModel) TableName() string { return "chat_messages" }

// ToDomain converts ChatMessageModel to a domain ChatMessage.
func (m *ChatMessageModel) ToDomain() ChatMessage {
	return ChatMessage{
		ID:        m.ID,
		Username:  m.Username,
		UserID:    m.UserID,
		UserRole:  m.UserRole,
		Body:      m.Body,
		Room:      m.Room,
		CreatedAt: m.CreatedAt,
	}
}

// ChatMessageToModel converts a domain ChatMessage to ChatMessageModel.
func ChatMessageToModel(msg *ChatMessage) *ChatMessageModel {
	return &ChatMessageModel{
		ID:        msg.ID,
		Username:  msg.Username,
		UserID:    msg.UserID,
		UserRole:  msg.UserRole,
		Body:      msg.Body,
		Room:      msg.Room,
		CreatedAt: msg.CreatedAt,
	}
}
