package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kansha-app/kansha/model"
)

const (
	defaultNotificationsPageSize = 10
	maxNotificationsPageSize     = 100
)

type markReadInput struct {
	NotificationID string `json:"notificationId"`
	MarkAllAsRead  bool   `json:"markAllAsRead"`
}

// ListNotifications returns the caller's bell-menu entries, newest first,
// with the unread count for the badge.
func (s *Server) ListNotifications(c *gin.Context) {
	userId := callerId(c)
	page, limit := pagination(c, defaultNotificationsPageSize, maxNotificationsPageSize)
	unreadOnly := c.Query("unread") == "true"

	query := s.DB.Where("recipient_id = ?", userId)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []model.Notification
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		writeError(c, err)
		return
	}

	var unreadCount int64
	if err := s.DB.Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userId, false).
		Count(&unreadCount).Error; err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unreadCount":   unreadCount,
		"hasMore":       len(notifications) == limit,
	})
}

// MarkNotificationsRead marks one notification, or all of the caller's, as
// read. Scoped to the caller so nobody can touch foreign notifications.
func (s *Server) MarkNotificationsRead(c *gin.Context) {
	userId := callerId(c)

	var input markReadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	query := s.DB.Model(&model.Notification{}).Where("recipient_id = ?", userId)
	switch {
	case input.MarkAllAsRead:
		query = query.Where("is_read = ?", false)
	case input.NotificationID != "":
		query = query.Where("id = ?", input.NotificationID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "notificationId or markAllAsRead is required"})
		return
	}

	if err := query.Update("is_read", true).Error; err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
