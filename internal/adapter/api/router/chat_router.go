package router

import (
	"github.com/labstack/echo/v4"

	"lokapasar/internal/adapter/api/handler"
	"lokapasar/internal/adapter/api/middleware"
)

// SetupChatRouter sets up conversation and message routes (excluding WebSocket).
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversationGroup := e.Group("/v1/conversations")
	conversationGroup.Use(authMiddleware.Authenticate)

	conversationGroup.POST("", chatHandler.OpenConversation)
	conversationGroup.GET("", chatHandler.ListConversations)
	conversationGroup.PUT("/:id/read", chatHandler.MarkConversationRead)

	conversationGroup.POST("/:id/messages", chatHandler.SendMessage)
	conversationGroup.GET("/:id/messages", chatHandler.GetMessages)
}
