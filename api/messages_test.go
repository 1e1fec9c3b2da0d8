package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/service/messaging"
)

type MockMessagingUseCase struct {
	mock.Mock
}

func (m *MockMessagingUseCase) Send(ctx context.Context, input messaging.SendMessageInput) (*domain.Message, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessagingUseCase) Conversation(ctx context.Context, userID, otherUserID int64) ([]domain.Message, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockMessagingUseCase) MarkRead(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func TestMessageHandler_send(t *testing.T) {
	messagingMock := &MockMessagingUseCase{}
	handler := NewMessageHandler(messagingMock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"sender_id": 42, "receiver_id": 9, "content": "On my way"}`
	c.Request = httptest.NewRequest("POST", "/api/messages", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	sent := &domain.Message{ID: 12, SenderID: 42, ReceiverID: 9, Content: "On my way"}
	messagingMock.On("Send", c.Request.Context(), messaging.SendMessageInput{
		SenderID: 42, ReceiverID: 9, Content: "On my way",
	}).Return(sent, nil)

	handler.send(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response domain.Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(12), response.ID)
}

func TestMessageHandler_sendValidationError(t *testing.T) {
	messagingMock := &MockMessagingUseCase{}
	handler := NewMessageHandler(messagingMock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"sender_id": 42, "receiver_id": 42, "content": "hello"}`
	c.Request = httptest.NewRequest("POST", "/api/messages", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	messagingMock.On("Send", c.Request.Context(), mock.Anything).Return(nil, domain.ErrValidation)

	handler.send(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageHandler_conversation(t *testing.T) {
	messagingMock := &MockMessagingUseCase{}
	handler := NewMessageHandler(messagingMock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/messages/conversation?userId1=42&userId2=9", nil)

	thread := []domain.Message{
		{ID: 1, SenderID: 42, ReceiverID: 9, Content: "On my way"},
		{ID: 2, SenderID: 9, ReceiverID: 42, Content: "See you at the rank"},
	}
	messagingMock.On("Conversation", c.Request.Context(), int64(42), int64(9)).Return(thread, nil)

	handler.conversation(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 2)
}

func TestMessageHandler_conversationMissingUser(t *testing.T) {
	handler := NewMessageHandler(&MockMessagingUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/messages/conversation?userId1=42", nil)

	handler.conversation(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageHandler_markRead(t *testing.T) {
	messagingMock := &MockMessagingUseCase{}
	handler := NewMessageHandler(messagingMock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("PATCH", "/api/messages/12/read", nil)
	c.Params = gin.Params{{Key: "id", Value: "12"}}

	read := &domain.Message{ID: 12, SenderID: 42, ReceiverID: 9, Content: "On my way", IsRead: true}
	messagingMock.On("MarkRead", c.Request.Context(), int64(12)).Return(read, nil)

	handler.markRead(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.IsRead)
}

func TestMessageHandler_markReadNotFound(t *testing.T) {
	messagingMock := &MockMessagingUseCase{}
	handler := NewMessageHandler(messagingMock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("PATCH", "/api/messages/999/read", nil)
	c.Params = gin.Params{{Key: "id", Value: "999"}}

	messagingMock.On("MarkRead", c.Request.Context(), int64(999)).Return(nil, domain.ErrNotFound)

	handler.markRead(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
