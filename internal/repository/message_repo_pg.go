package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmakoni/omnibus/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id int64) (*domain.Message, error)
	// Conversation returns the messages exchanged between two users in either
	// direction, oldest first.
	Conversation(ctx context.Context, userID, otherUserID int64) ([]domain.Message, error)
	MarkRead(ctx context.Context, id int64) (*domain.Message, error)
}

type PGMessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &PGMessageRepository{db: db}
}

const messageColumns = `id, sender_id, receiver_id, booking_id, content, is_read, sent_at`

func (r *PGMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	return r.db.QueryRow(ctx, `INSERT INTO messages (sender_id, receiver_id, booking_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, sent_at`,
		message.SenderID, message.ReceiverID, message.BookingID, message.Content).
		Scan(&message.ID, &message.IsRead, &message.SentAt)
}

func (r *PGMessageRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, id)
	var m domain.Message
	if err := scanMessage(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (r *PGMessageRepository) Conversation(ctx context.Context, userID, otherUserID int64) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY sent_at, id`, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PGMessageRepository) MarkRead(ctx context.Context, id int64) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `UPDATE messages SET is_read=TRUE WHERE id=$1 RETURNING `+messageColumns, id)
	var m domain.Message
	if err := scanMessage(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func scanMessage(row pgx.Row, m *domain.Message) error {
	return row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.BookingID, &m.Content, &m.IsRead, &m.SentAt)
}

var _ MessageRepository = (*PGMessageRepository)(nil)
