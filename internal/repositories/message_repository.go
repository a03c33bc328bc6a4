package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"message-service/internal/apperror"
	"message-service/internal/models"
)

// MessageRepository defines interactions for group messages.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	ListByGroup(ctx context.Context, groupID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create persists a message. A reused message id surfaces as a validation
// error with the exact client-facing text.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, group_id, sender, text, priority) VALUES ($1, $2, $3, $4, $5)
         RETURNING seq, created_at`,
		msg.ID, msg.GroupID, msg.Sender, msg.Text, msg.Priority).
		Scan(&msg.Seq, &msg.CreatedAt)
	if isUniqueViolation(err) {
		return models.Message{}, apperror.NewValidation("id already exists!", err)
	}
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListByGroup returns the group's messages in creation order.
func (r *MessageRepo) ListByGroup(ctx context.Context, groupID int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, group_id, sender, text, priority, seq, created_at
         FROM messages WHERE group_id=$1 ORDER BY seq ASC`, groupID)
	return msgs, err
}
