package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// createBookingRequest is the union of the standard and custom create bodies;
// booking_type picks the path.
type createBookingRequest struct {
	BookingType        string  `json:"booking_type"`
	UserID             int64   `json:"user_id"`
	ScheduleID         int64   `json:"schedule_id"`
	TravelDate         string  `json:"travel_date"`
	PickupPoint        string  `json:"pickup_point"`
	DropoffPoint       string  `json:"dropoff_point"`
	PickupCoordinates  *string `json:"pickup_coordinates,omitempty"`
	DropoffCoordinates *string `json:"dropoff_coordinates,omitempty"`
	NumberOfSeats      int     `json:"number_of_seats"`
	PaymentMethod      *string `json:"payment_method,omitempty"`
}

type driverResponseRequest struct {
	Response           string  `json:"response"`
	AlternativePickup  *string `json:"alternative_pickup,omitempty"`
	AlternativeDropoff *string `json:"alternative_dropoff,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

type userResponseRequest struct {
	Accepted bool `json:"accepted"`
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.GET("/user/:userId", h.listForUser)
	router.GET("/driver/:driverId", h.listForDriver)
	router.PATCH("/:id/driver-response", h.driverResponse)
	router.PATCH("/:id/user-response", h.userResponse)
	router.POST("/:id/start", h.start)
	router.POST("/:id/complete", h.complete)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		created *domain.Booking
		err     error
	)
	switch req.BookingType {
	case "standard", "":
		created, err = h.service.CreateStandard(c.Request.Context(), booking.StandardBookingInput{
			UserID:        req.UserID,
			ScheduleID:    req.ScheduleID,
			TravelDate:    req.TravelDate,
			PickupPoint:   req.PickupPoint,
			DropoffPoint:  req.DropoffPoint,
			NumberOfSeats: req.NumberOfSeats,
			PaymentMethod: req.PaymentMethod,
		})
	case "custom":
		created, err = h.service.CreateCustom(c.Request.Context(), booking.CustomBookingInput{
			UserID:             req.UserID,
			PickupPoint:        req.PickupPoint,
			DropoffPoint:       req.DropoffPoint,
			PickupCoordinates:  req.PickupCoordinates,
			DropoffCoordinates: req.DropoffCoordinates,
			TravelDate:         req.TravelDate,
			NumberOfSeats:      req.NumberOfSeats,
			PaymentMethod:      req.PaymentMethod,
		})
	default:
		writeError(c, fmt.Errorf("booking type %q: %w", req.BookingType, domain.ErrValidation))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *BookingHandler) listForUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return
	}

	bookings, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) listForDriver(c *gin.Context) {
	driverID, err := strconv.ParseInt(c.Param("driverId"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return
	}

	bookings, err := h.service.ListForDriver(c.Request.Context(), driverID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) driverResponse(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req driverResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.ApplyDriverResponse(c.Request.Context(), id, booking.DriverResponseInput{
		Response:           domain.DriverResponse(req.Response),
		AlternativePickup:  req.AlternativePickup,
		AlternativeDropoff: req.AlternativeDropoff,
		Notes:              req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *BookingHandler) userResponse(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req userResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.ApplyUserResponse(c.Request.Context(), id, req.Accepted)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *BookingHandler) start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

func (h *BookingHandler) complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *BookingHandler) transition(c *gin.Context, op func(ctx context.Context, id int64) (*domain.Booking, error)) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	updated, err := op(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *BookingHandler) bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return 0, false
	}
	return id, true
}
