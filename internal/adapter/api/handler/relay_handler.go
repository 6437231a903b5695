package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"lokapasar/internal/usecase"
	apperrors "lokapasar/pkg/errors"
)

// RelayHandler exposes the relay as a plain request/response call. Its wire
// shapes are fixed and deliberately bypass the response envelope used by the
// rest of the API.
type RelayHandler struct {
	relayUseCase *usecase.RelayUseCase
}

func NewRelayHandler(relayUseCase *usecase.RelayUseCase) *RelayHandler {
	return &RelayHandler{
		relayUseCase: relayUseCase,
	}
}

type relayRequest struct {
	MessageID string `json:"messageId"`
}

// Relay publishes the identified message to its conversation channel.
// Responses: 200 {"ok":true}; 400 {"error":"messageId is required"};
// 500 {"error":...} for fetch failure, publish timeout, or channel error.
func (h *RelayHandler) Relay(c echo.Context) error {
	c.Response().Header().Set("Access-Control-Allow-Origin", "*")

	var req relayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "messageId is required"})
	}

	if err := h.relayUseCase.Relay(c.Request().Context(), req.MessageID); err != nil {
		status := http.StatusInternalServerError
		if apperrors.Is(err, "BAD_REQUEST") {
			status = http.StatusBadRequest
		}
		return c.JSON(status, map[string]string{"error": errorMessage(err)})
	}

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Preflight answers CORS preflight requests with permissive headers.
func (h *RelayHandler) Preflight(c echo.Context) error {
	header := c.Response().Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	return c.NoContent(http.StatusNoContent)
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
