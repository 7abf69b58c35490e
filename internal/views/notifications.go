package views

import (
	"net/http"

	"github.com/cityassist/cityassist/go-web/internal/apiclient"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Notifications(c *gin.Context) {
	showNotifications(c, http.StatusOK, "")
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	app := appFrom(c)
	if err := app.API.Notifications.MarkAsRead(c.Request.Context(), c.Param("id")); err != nil {
		if followNavigation(c, app) {
			return
		}
		logger.Warnf("views: mark notification %s read: %v", c.Param("id"), err)
		showNotifications(c, statusFor(err), errorMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications")
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	app := appFrom(c)
	if err := app.API.Notifications.MarkAllAsRead(c.Request.Context()); err != nil {
		if followNavigation(c, app) {
			return
		}
		logger.Warnf("views: mark all notifications read: %v", err)
		showNotifications(c, statusFor(err), errorMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications")
}

func showNotifications(c *gin.Context, status int, msg string) {
	app := appFrom(c)
	list, err := app.API.Notifications.List(c.Request.Context(), apiclient.ListParams{})
	if err != nil {
		if followNavigation(c, app) {
			return
		}
		if msg == "" {
			msg = errorMessage(err)
			status = statusFor(err)
		}
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	render(c, status, "notifications.html", gin.H{
		"Title":         "Notifications",
		"Notifications": list,
		"UnreadCount":   unread,
		"Error":         msg,
	})
}
