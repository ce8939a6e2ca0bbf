package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Post is a public message of gratitude with points attached

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Content: the thanks message in plain text
Points: the attached denomination, one of ledger.AllowedPoints
AuthorID:
Author: the sender, "belongs-to" relation
RecipientID:
Recipient: the user being thanked, "belongs-to" relation

GoodCount:
	denormalized count of endorsements. Only ever moved by an atomic
	relative increment, never read-modify-write, so concurrent
	endorsements don't lose updates.

Likes: endorsements on this post, "has-many" relation

Cursor: The auto-inc global-unique index to keep the relative order of posts
*/

type Post struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	Content     string
	Points      int
	AuthorID    string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Author      User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	RecipientID string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Recipient   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	GoodCount   int
	Likes       []*Like `json:"likes"`
	Cursor      int32   `gorm:"autoIncrement"`
}
