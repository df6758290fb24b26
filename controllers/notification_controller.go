package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
)

// ListNotifications handles GET /api/notifications - the caller's inbox,
// newest first.
func ListNotifications(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	db := config.GetDB()

	query := db.Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").Limit(100).Find(&notifications).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load notifications")
		return
	}

	respondData(c, http.StatusOK, notifications)
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read.
func MarkNotificationRead(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, user.ID).
		Update("read", true)
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update notification")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"read": true})
}

// MarkAllNotificationsRead handles PATCH /api/notifications/read-all.
func MarkAllNotificationsRead(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	db := config.GetDB()
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Update("read", true)
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update notifications")
		return
	}

	respondData(c, http.StatusOK, gin.H{"updated": result.RowsAffected})
}
