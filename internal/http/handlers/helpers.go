package handlers

import (
	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/http/validation"
	"stakdcards.com/app/internal/shared/apperr"
)

// bindJSON decodes and validates the body into dst. On failure the error
// response is already written.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fields := validation.FromBindError(err, dst)
		middleware.Fail(c, apperr.InvalidErr("Please check the highlighted fields.", fields).WithErr(err))
		return false
	}
	return true
}
