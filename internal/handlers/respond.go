package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peti-app/peti-server/internal/helpers"
	"github.com/peti-app/peti-server/internal/models"
	"github.com/peti-app/peti-server/internal/storage"
)

// fail terminates the request with the status for the error's category.
// Unknown errors become a generic 500; details stay in the logs.
func fail(c *gin.Context, err error) {
	var appErr *helpers.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, models.ErrorResponse(appErr.Message))
		return
	}

	var upErr *storage.UploadError
	if errors.As(err, &upErr) {
		if upErr.Reason == storage.ReasonIO {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(helpers.Internal().Message))
			return
		}
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse(upErr.Message))
		return
	}

	c.JSON(http.StatusInternalServerError, models.ErrorResponse(helpers.Internal().Message))
}
