package model

import "time"

/*

Notification is a best-effort message shown in the recipient's bell menu

Id: primary key
RecipientID: the user this notification is for
SenderID: the user whose action produced it, nil for system notifications
Type: event kind, for example "POST_RECEIVED" or "LIKE_RECEIVED"
Title: short headline
Message: human readable body
PostID: the related post if any
IsRead: whether the recipient has seen it
CreatedAt: time when entity is created

Notifications are written asynchronously after the triggering operation
commits and are purged after a retention window, so no soft delete here.

*/

type Notification struct {
	Id          string `gorm:"primaryKey"`
	RecipientID string `gorm:"index"`
	SenderID    *string
	Type        string
	Title       string
	Message     string
	PostID      *string
	IsRead      bool
	CreatedAt   time.Time
}
