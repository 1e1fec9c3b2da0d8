package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/repository"
)

type MessagingUseCase interface {
	Send(ctx context.Context, input SendMessageInput) (*domain.Message, error)
	Conversation(ctx context.Context, userID, otherUserID int64) ([]domain.Message, error)
	MarkRead(ctx context.Context, id int64) (*domain.Message, error)
}

type MessagingService struct {
	messages repository.MessageRepository
}

type SendMessageInput struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	BookingID  *int64 `json:"booking_id,omitempty"`
	Content    string `json:"content"`
}

func NewMessagingService(messages repository.MessageRepository) *MessagingService {
	return &MessagingService{messages: messages}
}

func (s *MessagingService) Send(ctx context.Context, input SendMessageInput) (*domain.Message, error) {
	if input.SenderID < 1 || input.ReceiverID < 1 {
		return nil, fmt.Errorf("sender and receiver are required: %w", domain.ErrValidation)
	}
	if input.SenderID == input.ReceiverID {
		return nil, fmt.Errorf("sender and receiver must differ: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("message content is required: %w", domain.ErrValidation)
	}

	message := &domain.Message{
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		BookingID:  input.BookingID,
		Content:    input.Content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *MessagingService) Conversation(ctx context.Context, userID, otherUserID int64) ([]domain.Message, error) {
	if userID < 1 || otherUserID < 1 {
		return nil, fmt.Errorf("both user ids are required: %w", domain.ErrValidation)
	}
	return s.messages.Conversation(ctx, userID, otherUserID)
}

func (s *MessagingService) MarkRead(ctx context.Context, id int64) (*domain.Message, error) {
	return s.messages.MarkRead(ctx, id)
}

var _ MessagingUseCase = (*MessagingService)(nil)
