package messaging

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmakoni/omnibus/internal/domain"
)

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) Conversation(ctx context.Context, userID, otherUserID int64) ([]domain.Message, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func TestSend_Success(t *testing.T) {
	messages := &MockMessageRepository{}
	service := NewMessagingService(messages)

	ctx := context.Background()
	messages.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = 12
	}).Return(nil).Once()

	bookingID := int64(100)
	sent, err := service.Send(ctx, SendMessageInput{
		SenderID:   42,
		ReceiverID: 9,
		BookingID:  &bookingID,
		Content:    "Waiting at Makoni Shops, blue jacket",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(12), sent.ID)
	assert.Equal(t, int64(42), sent.SenderID)
	assert.Equal(t, int64(9), sent.ReceiverID)
	assert.False(t, sent.IsRead)
	messages.AssertExpectations(t)
}

func TestSend_EmptyContent(t *testing.T) {
	service := NewMessagingService(&MockMessageRepository{})

	_, err := service.Send(context.Background(), SendMessageInput{
		SenderID: 42, ReceiverID: 9, Content: "   ",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSend_SelfMessage(t *testing.T) {
	service := NewMessagingService(&MockMessageRepository{})

	_, err := service.Send(context.Background(), SendMessageInput{
		SenderID: 42, ReceiverID: 42, Content: "hello",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConversation(t *testing.T) {
	messages := &MockMessageRepository{}
	service := NewMessagingService(messages)

	ctx := context.Background()
	thread := []domain.Message{
		{ID: 1, SenderID: 42, ReceiverID: 9, Content: "On my way"},
		{ID: 2, SenderID: 9, ReceiverID: 42, Content: "See you at the rank"},
	}
	messages.On("Conversation", ctx, int64(42), int64(9)).Return(thread, nil).Once()

	got, err := service.Conversation(ctx, 42, 9)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(9), got[1].SenderID)
	messages.AssertExpectations(t)
}

func TestConversation_MissingUser(t *testing.T) {
	service := NewMessagingService(&MockMessageRepository{})

	_, err := service.Conversation(context.Background(), 42, 0)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMarkRead_NotFound(t *testing.T) {
	messages := &MockMessageRepository{}
	service := NewMessagingService(messages)

	ctx := context.Background()
	notFound := fmt.Errorf("message 999: %w", domain.ErrNotFound)
	messages.On("MarkRead", ctx, int64(999)).Return(nil, notFound).Once()

	_, err := service.MarkRead(ctx, 999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
