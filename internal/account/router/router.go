package router

import (
	"pair_chat_service/internal/account/app"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 註冊 account 相關的路由
func RegisterRoutes(r *fiber.App, handler *app.AccountHTTPHandler) {
	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
}
