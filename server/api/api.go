// Package api wires the HTTP surface: thin gin handlers that validate input,
// call into the ledger and jobs packages, and map the error taxonomy onto
// status codes.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kansha-app/kansha/ledger"
	"github.com/kansha-app/kansha/notifier"
	"github.com/kansha-app/kansha/server/middlewares"
	"github.com/kansha-app/kansha/utils"
	Logger "github.com/kansha-app/kansha/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Server struct {
	DB    *gorm.DB
	Bus   *notifier.Bus
	Redis *utils.RedisClient
}

func NewServer(db *gorm.DB, bus *notifier.Bus, redis *utils.RedisClient) *Server {
	return &Server{DB: db, Bus: bus, Redis: redis}
}

// RegisterRoutes attaches every route to the router. User-facing routes
// require a caller identity, cron routes require the scheduler secret.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	authed := router.Group("/api", middlewares.Identity())
	authed.POST("/users", s.CreateUser)
	authed.GET("/users", s.ListUsers)
	authed.GET("/users/me", s.CurrentUser)
	authed.GET("/posts", s.ListPosts)
	authed.POST("/posts", s.CreatePost)
	authed.POST("/posts/:id/like", s.LikePost)
	authed.GET("/transactions", s.ListTransactions)
	authed.GET("/notifications", s.ListNotifications)
	authed.PATCH("/notifications", s.MarkNotificationsRead)
	authed.GET("/stats", s.MonthlyStats)

	cronRoutes := router.Group("/api/cron", middlewares.CronAuth())
	cronRoutes.POST("/reset-points", s.ResetPoints)
	cronRoutes.POST("/delete-old-notifications", s.DeleteOldNotifications)
}

// callerId returns the authenticated caller set by the Identity middleware.
func callerId(c *gin.Context) string {
	return c.GetString("sub")
}

// writeError maps the ledger taxonomy onto HTTP responses. Anything outside
// the taxonomy is a store failure and surfaces as a generic 500 with no
// detail leaked.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidPoints),
		errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, ledger.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrUserNotFound),
		errors.Is(err, ledger.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidDeltaSet):
		// A delta set that doesn't balance is a bug in this server, not a
		// bad request.
		Logger.Log.Error("unbalanced delta set: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		Logger.Log.Error("request failed: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
