package model

import (
	"time"

	"gorm.io/gorm"
)

/*

User is a member who can send and receive thanks points

Id: primary key, the subject identifier supplied by the identity provider
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Name: display name
Email: unique login email, only used for display and lookup here
Department: organizational unit, used by stats aggregation
AvatarUrl: profile image

PointsBalance:
	the user's current spendable allowance. Mutated exclusively through the
	ledger engine's relative updates and the weekly reset's absolute set.
	The endorsement split produces fractional amounts (halves), so the
	column is a float, not an integer.
*/

type User struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	DeletedAt     gorm.DeletedAt
	Name          string
	Email         string `gorm:"uniqueIndex"`
	Department    string
	AvatarUrl     string
	PointsBalance float64
}
