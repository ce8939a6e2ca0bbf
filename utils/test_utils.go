package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kansha-app/kansha/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateTestUser inserts a user with the given starting balance, does sanity
// checks and returns it.
func CreateTestUser(t *testing.T, db *gorm.DB, name string, balance float64) *model.User {
	t.Helper()
	user := &model.User{
		Id:            uuid.New().String(),
		Name:          name,
		Email:         name + "@example.com",
		PointsBalance: balance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestPost inserts a post directly, bypassing the transfer, for tests
// that only need a post row to endorse.
func CreateTestPost(t *testing.T, db *gorm.DB, authorId string, recipientId string, points int) *model.Post {
	t.Helper()
	post := &model.Post{
		Id:          uuid.New().String(),
		Content:     "thank you!",
		Points:      points,
		AuthorID:    authorId,
		RecipientID: recipientId,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// BalanceOf reads a user's current balance.
func BalanceOf(t *testing.T, db *gorm.DB, userId string) float64 {
	t.Helper()
	var user model.User
	require.NoError(t, db.Where("id = ?", userId).First(&user).Error)
	return user.PointsBalance
}
