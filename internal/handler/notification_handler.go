package handler

import (
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/pkg/serverutils"
	"cleaning-reservation-be/internal/service"
	internalWS "cleaning-reservation-be/internal/websocket"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service *service.NotificationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs upgrades the request into a live feed of the caller's new inbox rows.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(c)
	if err != nil {
		return err
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"user_id": actor.UserId})
		internalWS.ServeWs(h.hub, conn, actor.UserId)
		h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": actor.UserId})
	})(c)
}

// GetNotifications returns the user's notifications, newest first.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit < 1 || limit > 100 || offset < 0 {
		return reservation.NewValidationError("limit", "limit must be 1..100 and offset non-negative")
	}

	notifications, total, err := h.service.GetNotifications(c.UserContext(), actor.UserId, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  offset/limit + 1,
		"limit": limit,
	})
}

// GetUnreadCount returns the number of unread notifications.
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(c)
	if err != nil {
		return err
	}

	count, err := h.service.GetUnreadCount(c.UserContext(), actor.UserId)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"count": count})
}

// MarkAsRead marks one notification as read.
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return reservation.NewValidationError("id", "must be a UUID")
	}

	if err := h.service.MarkAsRead(c.UserContext(), actor.UserId, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllAsRead marks all notifications as read.
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkAllAsRead(c.UserContext(), actor.UserId); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	notif := r.Group("/notifications", auth)
	notif.Get("/", h.GetNotifications)
	notif.Get("/unread-count", h.GetUnreadCount)
	notif.Get("/ws", h.ServeWs)
	notif.Put("/read-all", h.MarkAllAsRead)
	notif.Put("/:id/read", h.MarkAsRead)
}
