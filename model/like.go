package model

import "time"

/*

Like is an endorsement ("good") a user paid on a post

Id: primary key
UserID: the endorsing user
PostID: the endorsed post
CreatedAt: time when relation is created

There is deliberately no uniqueness constraint on (UserID, PostID): each
endorsement is an independent paid action, clicking twice spends two points.

*/

type Like struct {
	Id        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	PostID    string `gorm:"index"`
	CreatedAt time.Time
}
