package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
	"github.com/techcare-io/techcare-api/utils/logger"
)

// NotificationService appends notification rows as an outbox: the insert
// happens inside the caller's transaction so a rolled-back transition never
// leaves a stray notification, and an insert failure is logged and
// swallowed so it never fails the transition it rides on.
type NotificationService struct {
	log *logger.Logger
}

// NewNotificationService creates a notification service.
func NewNotificationService(log *logger.Logger) *NotificationService {
	return &NotificationService{log: log}
}

// Notify appends a notification for userID inside tx. Best-effort.
func (s *NotificationService) Notify(tx *gorm.DB, userID uint, ntype, title, message string, data map[string]interface{}) {
	notification := models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			s.log.Warn("failed to encode notification data", "type", ntype, "user_id", userID, "error", err)
		} else {
			notification.Data = raw
		}
	}

	if err := tx.Create(&notification).Error; err != nil {
		s.log.Warn("failed to write notification", "type", ntype, "user_id", userID, "error", err)
	}
}

// Notifier delivers a notification out of process (push, email, websocket).
type Notifier interface {
	Deliver(n *models.Notification) error
}

// LogNotifier is the default delivery channel: it only logs. Clients read
// the notifications table through the inbox endpoints regardless.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Deliver logs the notification.
func (n *LogNotifier) Deliver(notification *models.Notification) error {
	n.log.Info("notification",
		"user_id", notification.UserID,
		"type", notification.Type,
		"title", notification.Title,
	)
	return nil
}

// NotificationDispatcher drains undispatched notification rows on an
// interval and hands them to a Notifier. Delivery is best-effort: a failed
// row stays undispatched and is retried on the next tick.
type NotificationDispatcher struct {
	db       *gorm.DB
	notifier Notifier
	interval time.Duration
	batch    int
	log      *logger.Logger
}

// NewNotificationDispatcher creates a dispatcher draining db through notifier.
func NewNotificationDispatcher(db *gorm.DB, notifier Notifier, interval time.Duration, log *logger.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		db:       db,
		notifier: notifier,
		interval: interval,
		batch:    100,
		log:      log,
	}
}

// Run drains the outbox until ctx is cancelled.
func (d *NotificationDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.DrainOnce(); err != nil {
				d.log.Warn("notification dispatch pass failed", "error", err)
			}
		}
	}
}

// DrainOnce delivers one batch of undispatched notifications and returns
// how many were dispatched.
func (d *NotificationDispatcher) DrainOnce() (int, error) {
	var pending []models.Notification
	if err := d.db.Where("dispatched = ?", false).
		Order("id asc").
		Limit(d.batch).
		Find(&pending).Error; err != nil {
		return 0, err
	}

	dispatched := 0
	for i := range pending {
		if err := d.notifier.Deliver(&pending[i]); err != nil {
			d.log.Warn("notification delivery failed", "notification_id", pending[i].ID, "error", err)
			continue
		}
		if err := d.db.Model(&pending[i]).Update("dispatched", true).Error; err != nil {
			d.log.Warn("failed to mark notification dispatched", "notification_id", pending[i].ID, "error", err)
			continue
		}
		dispatched++
	}

	return dispatched, nil
}
