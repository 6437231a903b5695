package handler

import (
	"github.com/labstack/echo/v4"

	"lokapasar/internal/usecase"
	"lokapasar/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

// GetUnreadCount refreshes and returns the caller's unread aggregate. A
// refresh failure is absorbed upstream; this always answers with the best
// known count.
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count := h.notificationUseCase.Refresh(c.Request().Context(), userID)

	return response.Success(c, map[string]int64{"unread_count": count})
}
