package router

import (
	"github.com/labstack/echo/v4"

	"lokapasar/internal/adapter/api/handler"
	"lokapasar/internal/adapter/api/middleware"
)

// SetupRelayRouter exposes the broadcast relay invocation endpoint.
func SetupRelayRouter(e *echo.Echo, relayHandler *handler.RelayHandler, authMiddleware *middleware.AuthMiddleware) {
	e.POST("/v1/relay", relayHandler.Relay, authMiddleware.Authenticate)
	e.OPTIONS("/v1/relay", relayHandler.Preflight)
}
