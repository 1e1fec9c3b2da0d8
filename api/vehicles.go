package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/service/catalog"
)

type VehicleHandler struct {
	service catalog.CatalogUseCase
}

func NewVehicleHandler(service catalog.CatalogUseCase) *VehicleHandler {
	return &VehicleHandler{service: service}
}

func (h *VehicleHandler) Register(router *gin.RouterGroup) {
	router.GET("/driver/:driverId", h.listForDriver)
}

func (h *VehicleHandler) listForDriver(c *gin.Context) {
	driverID, err := strconv.ParseInt(c.Param("driverId"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrValidation)
		return
	}

	vehicles, err := h.service.DriverVehicles(c.Request.Context(), driverID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}
