package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/service/subscription"
)

type SubscriptionHandler struct {
	service subscription.SubscriptionUseCase
}

func NewSubscriptionHandler(service subscription.SubscriptionUseCase) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

type createSubscriptionRequest struct {
	UserID        int64  `json:"user_id"`
	RouteID       int64  `json:"route_id"`
	PackageType   string `json:"package_type"`
	StartDate     string `json:"start_date"`
	PaymentMethod string `json:"payment_method"`
}

type subscriptionStatusRequest struct {
	Status string `json:"status"`
}

func (h *SubscriptionHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.GET("/user/:userId", h.listForUser)
	router.POST("/:id/use-ride", h.useRide)
	router.PATCH("/:id/status", h.updateStatus)
}

func (h *SubscriptionHandler) create(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.service.Create(c.Request.Context(), subscription.CreateSubscriptionInput{
		UserID:        req.UserID,
		RouteID:       req.RouteID,
		PackageType:   domain.PackageType(req.PackageType),
		StartDate:     req.StartDate,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *SubscriptionHandler) get(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	sub, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) listForUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return
	}

	subs, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SubscriptionHandler) useRide(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	sub, err := h.service.UseRide(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) updateStatus(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req subscriptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		sub *domain.Subscription
		err error
	)
	switch domain.SubscriptionStatus(req.Status) {
	case domain.SubscriptionStatusPaused:
		sub, err = h.service.Pause(c.Request.Context(), id)
	case domain.SubscriptionStatusActive:
		sub, err = h.service.Resume(c.Request.Context(), id)
	case domain.SubscriptionStatusCancelled:
		sub, err = h.service.Cancel(c.Request.Context(), id)
	default:
		writeError(c, fmt.Errorf("status %q is not settable: %w", req.Status, domain.ErrValidation))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) subscriptionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return 0, false
	}
	return id, true
}
