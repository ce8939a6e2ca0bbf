package jobs

import (
	"time"

	"github.com/kansha-app/kansha/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Notifications are transient UI state, keep a month of history.
const notificationRetention = 30 * 24 * time.Hour

// DeleteOldNotifications purges notifications older than the retention
// window and returns how many rows were removed. The ledger itself is never
// touched by retention.
func DeleteOldNotifications(db *gorm.DB) (int64, error) {
	cutoff := time.Now().Add(-notificationRetention)
	res := db.Where("created_at < ?", cutoff).Delete(&model.Notification{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete old notifications")
	}
	return res.RowsAffected, nil
}
