package model

import "time"

// TransactionType enumerates every balance-affecting event kind.
type TransactionType string

const (
	TransactionTypePostSend         TransactionType = "POST_SEND"
	TransactionTypePostReceive      TransactionType = "POST_RECEIVE"
	TransactionTypeLikeSend         TransactionType = "LIKE_SEND"
	TransactionTypeLikeReceive      TransactionType = "LIKE_RECEIVE"
	TransactionTypeWeeklyReset      TransactionType = "WEEKLY_RESET"
	TransactionTypeWeeklyAllocation TransactionType = "WEEKLY_ALLOCATION"
)

/*

PointTransaction is one append-only ledger entry explaining a balance change

Id: primary key
UserID:
User: the user whose balance this entry moved, "belongs-to" relation
PostID:
Post: the related post if any, nil for weekly reset/allocation entries
Amount: signed points delta, fractional for endorsement shares
Type: the event kind, see TransactionType
CreatedAt: time when entity is created

Rows are never updated or deleted, they form the audit trail for the
balance column.

*/

type PointTransaction struct {
	Id        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	User      User
	PostID    *string
	Post      *Post
	Amount    float64
	Type      TransactionType
	CreatedAt time.Time
}
