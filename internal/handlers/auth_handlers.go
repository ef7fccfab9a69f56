package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers serves sign-up, log-in and email verification.
type AuthHandlers struct {
	authService   services.AuthService
	allowedOrigin string
}

func NewAuthHandlers(authService services.AuthService, allowedOrigin string) *AuthHandlers {
	return &AuthHandlers{
		authService:   authService,
		allowedOrigin: strings.TrimSuffix(allowedOrigin, "/"),
	}
}

// SignUp handles POST /auth/sign-up
func (h *AuthHandlers) SignUp(c echo.Context) error {
	var req models.SignUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	resp, err := h.authService.SignUp(c.Request().Context(), &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// LogIn handles POST /auth/log-in
func (h *AuthHandlers) LogIn(c echo.Context) error {
	var req models.LogInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	resp, err := h.authService.LogIn(c.Request().Context(), &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Verify handles GET /auth/verify and always redirects to the front-end login page.
func (h *AuthHandlers) Verify(c echo.Context) error {
	verified := true
	message := "Email verified, you can log in now"

	changed, err := h.authService.Verify(c.Request().Context(), c.QueryParam("token"))
	switch {
	case err != nil:
		verified = false
		message = "The verification link is invalid or expired"
	case !changed:
		message = "Email already verified"
	}

	target := h.allowedOrigin + "/login?message=" + url.QueryEscape(message) + "&verified=" + strconv.FormatBool(verified)
	return c.Redirect(http.StatusSeeOther, target)
}
