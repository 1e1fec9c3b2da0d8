package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/service/messaging"
)

type MessageHandler struct {
	service messaging.MessagingUseCase
}

func NewMessageHandler(service messaging.MessagingUseCase) *MessageHandler {
	return &MessageHandler{service: service}
}

type sendMessageRequest struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	BookingID  *int64 `json:"booking_id,omitempty"`
	Content    string `json:"content"`
}

func (h *MessageHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.send)
	router.GET("/conversation", h.conversation)
	router.PATCH("/:id/read", h.markRead)
}

func (h *MessageHandler) send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.service.Send(c.Request.Context(), messaging.SendMessageInput{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		BookingID:  req.BookingID,
		Content:    req.Content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) conversation(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId1"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("userId1 query parameter is required: %w", domain.ErrValidation))
		return
	}
	otherUserID, err := strconv.ParseInt(c.Query("userId2"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("userId2 query parameter is required: %w", domain.ErrValidation))
		return
	}

	messages, err := h.service.Conversation(c.Request.Context(), userID, otherUserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) markRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return
	}

	message, err := h.service.MarkRead(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}
