package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aadrigaar/portal-productos/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append persists a chat message, assigning its server-side id and timestamp.
func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC()
	if msg.Room == "" {
		msg.Room = domain.DefaultRoom
	}

	model := domain.ChatMessageToModel(msg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	msg.CreatedAt = model.CreatedAt
	return nil
}

// QueryRecent returns up to limit messages for a room, newest first.
func (r *GormMessageRepository) QueryRecent(ctx context.Context, room string, limit int) ([]domain.ChatMessage, error) {
	return r.QueryPage(ctx, room, limit, 0)
}

// QueryPage returns a history page for a room, newest first.
func (r *GormMessageRepository) QueryPage(ctx context.Context, room string, limit, offset int) ([]domain.ChatMessage, error) {
	var models []domain.ChatMessageModel
	if err := r.db.WithContext(ctx).
		Where("room = ?", room).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error; err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, 0, len(models))
	for i := range models {
		messages = append(messages, models[i].ToDomain())
	}
	return messages, nil
}

// Delete removes one message by id and returns the deleted row.
func (r *GormMessageRepository) Delete(ctx context.Context, id string) (*domain.ChatMessage, error) {
	var model domain.ChatMessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, result.Error
	}

	if err := r.db.WithContext(ctx).Delete(&domain.ChatMessageModel{}, "id = ?", id).Error; err != nil {
		return nil, err
	}

	msg := model.ToDomain()
	return &msg, nil
}

// Clear removes all messages and reports how many were deleted.
func (r *GormMessageRepository) Clear(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.ChatMessageModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
