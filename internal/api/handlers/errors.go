package handlers

import (
	"errors"
	"net/http"

	"requisition-form-api-server/config"
	"requisition-form-api-server/internal/models"
	"requisition-form-api-server/internal/requisition"
	"requisition-form-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors onto HTTP responses. Validation failures are warnings
// for the form layer and carry a machine-readable code.
func respondError(c *gin.Context, log *logrus.Logger, funcName string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Error(), "code": ve.Code}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, requisition.ErrTransitionNotAllowed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrStoreUnavailable):
		if log != nil {
			config.LogError(log, "handlers", funcName, c.FullPath(), nil, err)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Record store is unavailable, try again later"})
	default:
		if log != nil {
			config.LogError(log, "handlers", funcName, c.FullPath(), nil, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
