package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/service/booking"
	"github.com/tmakoni/omnibus/internal/service/catalog"
)

type ScheduleHandler struct {
	catalog  catalog.CatalogUseCase
	bookings booking.BookingUseCase
}

func NewScheduleHandler(catalogService catalog.CatalogUseCase, bookingService booking.BookingUseCase) *ScheduleHandler {
	return &ScheduleHandler{catalog: catalogService, bookings: bookingService}
}

func (h *ScheduleHandler) Register(router *gin.RouterGroup) {
	router.GET("/available", h.available)
	router.GET("/:id/capacity", h.capacity)
}

func (h *ScheduleHandler) available(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		writeError(c, fmt.Errorf("date query parameter is required: %w", domain.ErrValidation))
		return
	}

	schedules, err := h.catalog.AvailableSchedules(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) capacity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return
	}
	date := c.Query("date")
	if date == "" {
		writeError(c, fmt.Errorf("date query parameter is required: %w", domain.ErrValidation))
		return
	}
	seats := 1
	if raw := c.Query("seats"); raw != "" {
		seats, err = strconv.Atoi(raw)
		if err != nil || seats < 1 {
			writeError(c, fmt.Errorf("seats must be a positive integer: %w", domain.ErrValidation))
			return
		}
	}

	report, err := h.bookings.CheckCapacity(c.Request.Context(), id, date, seats)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
