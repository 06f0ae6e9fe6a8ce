package router

import (
	"context"

	"pair_chat_service/internal/pairing/app"
	"pair_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 註冊配對相關的路由
// /ws 允許匿名 upgrade, 身分可事後經 auth 動作補上
func RegisterRoutes(r *fiber.App, pairingWebsocket *app.PairingWebsocketHandler) {
	r.Use("/ws", middlewares.OptionalJWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		pairingWebsocket.HandleConnection(context.Background(), c)
	}))
}
