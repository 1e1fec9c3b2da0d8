package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmakoni/omnibus/internal/domain"
)

// writeError translates domain sentinels into HTTP status codes. Anything
// unrecognized is a 500 with the error text withheld from the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPackageType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCapacityExceeded), errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrHoldActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
