package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kansha-app/kansha/jobs"
)

// ResetPoints is the external scheduler's entry to the weekly reset. The
// CronAuth middleware already verified the shared secret. A repeat trigger
// within the same period reports skipped instead of double-granting.
func (s *Server) ResetPoints(c *gin.Context) {
	result, err := jobs.RunWeeklyReset(s.DB, s.Redis)
	if err != nil {
		writeError(c, err)
		return
	}

	message := fmt.Sprintf("points reset completed for %d users", result.Processed)
	if result.Skipped {
		message = "points reset already ran for this period"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"processed": result.Processed,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	})
}

// DeleteOldNotifications purges notifications past the retention window.
func (s *Server) DeleteOldNotifications(c *gin.Context) {
	deleted, err := jobs.DeleteOldNotifications(s.DB)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"deletedCount": deleted,
	})
}
