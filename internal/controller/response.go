package controller

import (
	"context"
	"errors"
	"io"

	"todoapp/internal/apperr"
	"todoapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error": message} with the status of its kind.
// Internal causes are logged and never shown to the client.
func respondError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		if isContextErr(err) {
			logger.Debug(ctx, "Request cancelled", "error", err)
		} else {
			logger.Error(ctx, fallback, "error", err)
		}
	}
	c.JSON(apperr.Status(kind), gin.H{"error": apperr.Message(err, fallback)})
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.BadRequest("Invalid JSON body")
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
