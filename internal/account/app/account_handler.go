package app

import (
	"pair_chat_service/pkg/logger"
	"pair_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccountHTTPHandler 提供 account 的 REST API
type AccountHTTPHandler struct {
	Usecase AccountUseCase
}

// NewAccountHTTPHandler create AccountHTTPHandler
func NewAccountHTTPHandler(usecase AccountUseCase) *AccountHTTPHandler {
	return &AccountHTTPHandler{Usecase: usecase}
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup 實作 Signup
func (h *AccountHTTPHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid request body",
		})
	}

	if err := h.Usecase.Register(c.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		logger.Log.Error("Signup Err", zap.String("email", req.Email), zap.String("Err :", err.Error()))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "create success",
	})
}

// Login 實作 Login
func (h *AccountHTTPHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid request body",
		})
	}

	t, err := h.Usecase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Error("Login Err", zap.String("email", req.Email), zap.String("Err :", err.Error()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	// websocket upgrade 靠這顆 cookie 帶身分
	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    t,
		HTTPOnly: true,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"token":   t,
		"message": "login success",
	})
}

// Logout 實作 Logout
func (h *AccountHTTPHandler) Logout(c *fiber.Ctx) error {
	t := c.Cookies(middlewares.CookieToken)
	if t == "" {
		t = c.Query(middlewares.QueryToken)
	}

	if err := h.Usecase.Logout(c.Context(), t); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	c.ClearCookie(middlewares.CookieToken)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "logout success",
	})
}
