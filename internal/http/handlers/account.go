package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/shared/apperr"
)

type AccountHandler struct {
	Welcome *email.WelcomeService
}

func NewAccountHandler(w *email.WelcomeService) *AccountHandler {
	return &AccountHandler{Welcome: w}
}

// POST /api/account/welcome
// Safe to call after every sign-in; the email goes out once per account.
func (h *AccountHandler) SendWelcome(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Sign in required."))
		return
	}
	var req struct {
		Name string `json:"name" binding:"max=255"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = u.Name
	}
	if u.Email == "" {
		middleware.Fail(c, apperr.InvalidErr("Account has no email address.", nil))
		return
	}

	res, err := h.Welcome.SendWelcome(c.Request.Context(), u.ID, u.Email, name)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
