package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	deviceTokens           repositories.DeviceTokenRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, devices repositories.DeviceTokenRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		deviceTokens:           devices,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.POST("/devices", h.RegisterDevice)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	ids := make([]uuid.UUID, 0, len(notifications))
	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		ids = append(ids, n.ActorID)
	}
	if len(ids) == 0 {
		return enriched
	}

	users, err := h.userRepository.GetUsersByIDs(c.Request().Context(), ids)
	if err != nil {
		// actors are decoration, the list is still useful without them
		return enriched
	}
	actors := make(map[uuid.UUID]models.UserCompact, len(users))
	for i := range users {
		actors[users[i].ID] = users[i].ToCompact()
	}
	for i := range enriched {
		if a, ok := actors[enriched[i].ActorID]; ok {
			enriched[i].Actor = &a
		}
	}
	return enriched
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := h.notificationRepository.GetByRecipientID(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not load notifications").SetInternal(err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.enrichNotifications(c, notifications),
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID, err := currentUser(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not count notifications").SetInternal(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID, err := currentUser(c)
	if err != nil {
		return err
	}
	notifID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	ok, err := h.notificationRepository.MarkAsRead(c.Request().Context(), notifID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not update notification").SetInternal(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not update notifications").SetInternal(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// RegisterDevice stores an FCM registration token for the caller
func (h *NotificationHandler) RegisterDevice(c echo.Context) error {
	currentUserID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.RegisterDeviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token := &models.DeviceToken{Token: req.Token, UserID: currentUserID, Platform: req.Platform}
	if err := h.deviceTokens.Upsert(c.Request().Context(), token); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not register device").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
