package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kansha-app/kansha/model"
	"github.com/kansha-app/kansha/notifier"
	"github.com/kansha-app/kansha/utils"
	"github.com/kansha-app/kansha/utils/dotenv"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db, _ := utils.CreateTempDB(t)

	bus := notifier.NewBus(db)
	ctx, cancel := context.WithCancel(context.Background())
	go bus.Run(ctx)
	t.Cleanup(func() {
		cancel()
		bus.Close()
	})
	time.Sleep(50 * time.Millisecond)

	router := gin.New()
	NewServer(db, bus, utils.GetRedisClient()).RegisterRoutes(router)
	return db, router
}

// performRequest issues a request as the given caller. An empty sub means an
// unauthenticated request.
func performRequest(router *gin.Engine, method string, path string, sub string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sub != "" {
		req.Header.Set("sub", sub)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func entryCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.PointTransaction{}).Count(&count).Error)
	return count
}

func TestIdentityRequired(t *testing.T) {
	_, router := newTestServer(t)

	res := performRequest(router, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCreateUserIdempotent(t *testing.T) {
	db, router := newTestServer(t)

	res := performRequest(router, http.MethodPost, "/api/users", "user-1", gin.H{
		"name":  "Alice",
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	require.Equal(t, 400.0, utils.BalanceOf(t, db, "user-1"))

	// Second sign-in keeps the stored user, no double creation.
	res = performRequest(router, http.MethodPost, "/api/users", "user-1", gin.H{
		"name":  "Alice Renamed",
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, res.Code)

	var user model.User
	require.NoError(t, db.Where("id = ?", "user-1").First(&user).Error)
	require.Equal(t, "Alice", user.Name)
	require.Equal(t, 400.0, user.PointsBalance)
}

func TestCreatePostTransfersPoints(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 400)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	res := performRequest(router, http.MethodPost, "/api/posts", author.Id, gin.H{
		"content":     "ありがとう！",
		"points":      100,
		"recipientId": recipient.Id,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	require.Equal(t, 300.0, utils.BalanceOf(t, db, author.Id))
	require.Equal(t, 100.0, utils.BalanceOf(t, db, recipient.Id))
	require.Equal(t, int64(2), entryCount(t, db))

	var sendEntry model.PointTransaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", author.Id, model.TransactionTypePostSend).First(&sendEntry).Error)
	require.Equal(t, -100.0, sendEntry.Amount)
	require.NotNil(t, sendEntry.PostID)

	// The recipient notification lands asynchronously after commit.
	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.Notification{}).Where("recipient_id = ?", recipient.Id).Count(&count)
		return count == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCreatePostInsufficientBalance(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 30)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	res := performRequest(router, http.MethodPost, "/api/posts", author.Id, gin.H{
		"content":     "ありがとう！",
		"points":      50,
		"recipientId": recipient.Id,
	})
	require.Equal(t, http.StatusBadRequest, res.Code)

	// Nothing moved and no rows were left behind.
	require.Equal(t, 30.0, utils.BalanceOf(t, db, author.Id))
	require.Equal(t, 0.0, utils.BalanceOf(t, db, recipient.Id))
	require.Equal(t, int64(0), entryCount(t, db))

	var postCount int64
	require.NoError(t, db.Model(&model.Post{}).Count(&postCount).Error)
	require.Equal(t, int64(0), postCount)
}

func TestCreatePostRejectsBadDenomination(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 400)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	for _, points := range []int{0, 75, -100, 1000} {
		res := performRequest(router, http.MethodPost, "/api/posts", author.Id, gin.H{
			"content":     "ありがとう！",
			"points":      points,
			"recipientId": recipient.Id,
		})
		require.Equal(t, http.StatusBadRequest, res.Code)
	}
	require.Equal(t, 400.0, utils.BalanceOf(t, db, author.Id))
}

func TestCreatePostUnknownRecipient(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 400)

	res := performRequest(router, http.MethodPost, "/api/posts", author.Id, gin.H{
		"content":     "ありがとう！",
		"points":      100,
		"recipientId": "no-such-user",
	})
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Equal(t, 400.0, utils.BalanceOf(t, db, author.Id))
}

func TestLikeSplitsPointAcrossDistinctParties(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 300)
	recipient := utils.CreateTestUser(t, db, "recipient", 100)
	endorser := utils.CreateTestUser(t, db, "endorser", 400)
	post := utils.CreateTestPost(t, db, author.Id, recipient.Id, 100)

	res := performRequest(router, http.MethodPost, "/api/posts/"+post.Id+"/like", endorser.Id, nil)
	require.Equal(t, http.StatusCreated, res.Code)

	require.Equal(t, 399.0, utils.BalanceOf(t, db, endorser.Id))
	require.Equal(t, 300.5, utils.BalanceOf(t, db, author.Id))
	require.Equal(t, 100.5, utils.BalanceOf(t, db, recipient.Id))
	require.Equal(t, int64(3), entryCount(t, db))

	var updated model.Post
	require.NoError(t, db.Where("id = ?", post.Id).First(&updated).Error)
	require.Equal(t, 1, updated.GoodCount)
}

func TestLikeSelfPostGrantsFullPoint(t *testing.T) {
	db, router := newTestServer(t)
	selfThanker := utils.CreateTestUser(t, db, "self", 200)
	endorser := utils.CreateTestUser(t, db, "endorser", 10)
	post := utils.CreateTestPost(t, db, selfThanker.Id, selfThanker.Id, 50)

	res := performRequest(router, http.MethodPost, "/api/posts/"+post.Id+"/like", endorser.Id, nil)
	require.Equal(t, http.StatusCreated, res.Code)

	// Author equals recipient: the single party receives the whole point.
	require.Equal(t, 201.0, utils.BalanceOf(t, db, selfThanker.Id))
	require.Equal(t, 9.0, utils.BalanceOf(t, db, endorser.Id))
	require.Equal(t, int64(2), entryCount(t, db))
}

func TestRepeatLikesAreIndependentPaidActions(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 0)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)
	endorser := utils.CreateTestUser(t, db, "endorser", 2)
	post := utils.CreateTestPost(t, db, author.Id, recipient.Id, 100)

	for i := 0; i < 2; i++ {
		res := performRequest(router, http.MethodPost, "/api/posts/"+post.Id+"/like", endorser.Id, nil)
		require.Equal(t, http.StatusCreated, res.Code)
	}
	// The third click cannot be afforded.
	res := performRequest(router, http.MethodPost, "/api/posts/"+post.Id+"/like", endorser.Id, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	require.Equal(t, 0.0, utils.BalanceOf(t, db, endorser.Id))
	require.Equal(t, 1.0, utils.BalanceOf(t, db, author.Id))
	require.Equal(t, 1.0, utils.BalanceOf(t, db, recipient.Id))

	var updated model.Post
	require.NoError(t, db.Where("id = ?", post.Id).First(&updated).Error)
	require.Equal(t, 2, updated.GoodCount)
}

func TestLikeUnknownPost(t *testing.T) {
	db, router := newTestServer(t)
	endorser := utils.CreateTestUser(t, db, "endorser", 10)

	res := performRequest(router, http.MethodPost, "/api/posts/no-such-post/like", endorser.Id, nil)
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Equal(t, 10.0, utils.BalanceOf(t, db, endorser.Id))
}

func TestLikeUnknownEndorser(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 0)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)
	post := utils.CreateTestPost(t, db, author.Id, recipient.Id, 100)

	res := performRequest(router, http.MethodPost, "/api/posts/"+post.Id+"/like", "no-such-user", nil)
	require.Equal(t, http.StatusNotFound, res.Code)

	// Rejected before anything was written.
	var likeCount int64
	require.NoError(t, db.Model(&model.Like{}).Count(&likeCount).Error)
	require.Equal(t, int64(0), likeCount)
	require.Equal(t, int64(0), entryCount(t, db))

	var updated model.Post
	require.NoError(t, db.Where("id = ?", post.Id).First(&updated).Error)
	require.Equal(t, 0, updated.GoodCount)
}

func TestCreatePostSurvivesNotificationSinkFailure(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := notifier.NewBus(db)
	require.NoError(t, bus.Close())
	router := gin.New()
	NewServer(db, bus, utils.GetRedisClient()).RegisterRoutes(router)

	author := utils.CreateTestUser(t, db, "author", 400)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	res := performRequest(router, http.MethodPost, "/api/posts", author.Id, gin.H{
		"content":     "ありがとう！",
		"points":      100,
		"recipientId": recipient.Id,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	// The transfer committed even though no notification could be delivered.
	require.Equal(t, 300.0, utils.BalanceOf(t, db, author.Id))
	require.Equal(t, 100.0, utils.BalanceOf(t, db, recipient.Id))
	require.Equal(t, int64(2), entryCount(t, db))

	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestEndToEndScenario(t *testing.T) {
	db, router := newTestServer(t)
	userA := utils.CreateTestUser(t, db, "a", 400)
	userB := utils.CreateTestUser(t, db, "b", 0)
	userC := utils.CreateTestUser(t, db, "c", 400)

	res := performRequest(router, http.MethodPost, "/api/posts", userA.Id, gin.H{
		"content":     "helped me ship the release",
		"points":      100,
		"recipientId": userB.Id,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	var created struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))

	require.Equal(t, 300.0, utils.BalanceOf(t, db, userA.Id))
	require.Equal(t, 100.0, utils.BalanceOf(t, db, userB.Id))
	require.Equal(t, int64(2), entryCount(t, db))

	res = performRequest(router, http.MethodPost, "/api/posts/"+created.Id+"/like", userC.Id, nil)
	require.Equal(t, http.StatusCreated, res.Code)

	require.Equal(t, 399.0, utils.BalanceOf(t, db, userC.Id))
	require.Equal(t, 300.5, utils.BalanceOf(t, db, userA.Id))
	require.Equal(t, 100.5, utils.BalanceOf(t, db, userB.Id))
	require.Equal(t, int64(5), entryCount(t, db))

	var post model.Post
	require.NoError(t, db.Where("id = ?", created.Id).First(&post).Error)
	require.Equal(t, 1, post.GoodCount)

	// Total signed volume across the closed set of operations is zero.
	var total float64
	require.NoError(t, db.Model(&model.PointTransaction{}).Select("COALESCE(SUM(amount), 0)").Scan(&total).Error)
	require.Zero(t, total)
}

func TestTransactionsAreSelfOnly(t *testing.T) {
	db, router := newTestServer(t)
	userA := utils.CreateTestUser(t, db, "a", 400)
	userB := utils.CreateTestUser(t, db, "b", 400)

	res := performRequest(router, http.MethodGet, "/api/transactions?userId="+userB.Id, userA.Id, nil)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = performRequest(router, http.MethodGet, "/api/transactions", userA.Id, nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestNotificationsFlow(t *testing.T) {
	db, router := newTestServer(t)
	author := utils.CreateTestUser(t, db, "author", 400)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	res := performRequest(router, http.MethodPost, "/api/posts", author.Id, gin.H{
		"content":     "ありがとう！",
		"points":      50,
		"recipientId": recipient.Id,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.Notification{}).Where("recipient_id = ?", recipient.Id).Count(&count)
		return count == 1
	}, 3*time.Second, 20*time.Millisecond)

	res = performRequest(router, http.MethodGet, "/api/notifications", recipient.Id, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var listing struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &listing))
	require.Equal(t, int64(1), listing.UnreadCount)

	res = performRequest(router, http.MethodPatch, "/api/notifications", recipient.Id, gin.H{
		"markAllAsRead": true,
	})
	require.Equal(t, http.StatusOK, res.Code)

	res = performRequest(router, http.MethodGet, "/api/notifications", recipient.Id, nil)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &listing))
	require.Equal(t, int64(0), listing.UnreadCount)
}

func TestCronEndpointsRejectBadSecret(t *testing.T) {
	_, router := newTestServer(t)
	os.Setenv("CRON_SECRET", "test-cron-secret")
	defer os.Unsetenv("CRON_SECRET")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/delete-old-notifications", nil)
	req.Header.Set("Authorization", "Bearer wrong-secret")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/cron/delete-old-notifications", nil)
	req.Header.Set("Authorization", "Bearer test-cron-secret")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
}
