// Package jobs holds the periodic maintenance work: the weekly points reset
// and the notification retention purge. Both are reachable two ways, through
// the authenticated /api/cron endpoints (external scheduler) and through the
// in-process cron scheduler binary.
package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kansha-app/kansha/ledger"
	"github.com/kansha-app/kansha/model"
	"github.com/kansha-app/kansha/utils"
	Logger "github.com/kansha-app/kansha/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A marker older than this is of no use, the next period has its own key.
const resetMarkerTTL = 14 * 24 * time.Hour

// ResetResult summarizes one reset run.
type ResetResult struct {
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped"`
}

// PeriodKey names the allowance period the given time falls in, one reset is
// allowed per key. Periods are ISO weeks, e.g. "2026-W35".
func PeriodKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// RunWeeklyReset claims the current period marker and resets every user's
// allowance. A second trigger within the same period is a no-op reported as
// skipped, so a misfiring external scheduler cannot double-grant.
func RunWeeklyReset(db *gorm.DB, redis *utils.RedisClient) (*ResetResult, error) {
	return resetPeriod(db, redis, PeriodKey(time.Now()))
}

func resetPeriod(db *gorm.DB, redis *utils.RedisClient, period string) (*ResetResult, error) {
	claimed, err := redis.ClaimResetPeriod(period, resetMarkerTTL)
	if err != nil {
		// Redis being unreachable must not block the reset, the scheduler
		// cadence is still the primary guard against double runs.
		Logger.Log.Error("cannot claim reset marker for ", period, ": ", err)
	} else if !claimed {
		Logger.Log.Info("points reset already ran for period ", period)
		return &ResetResult{Skipped: true}, nil
	}

	result, err := ResetAllPoints(db)
	if err != nil && claimed {
		// Nothing was processed, give the period back so a retry can run.
		if releaseErr := redis.ReleaseResetPeriod(period); releaseErr != nil {
			Logger.Log.Error("cannot release reset marker for ", period, ": ", releaseErr)
		}
	}
	return result, err
}

// ResetAllPoints zeroes any remaining allowance and grants a fresh one for
// every user. Each user is one atomic unit, a failing user is logged and
// counted but does not abort the remaining users.
func ResetAllPoints(db *gorm.DB) (*ResetResult, error) {
	var userIds []string
	if err := db.Model(&model.User{}).Pluck("id", &userIds).Error; err != nil {
		return nil, errors.Wrap(err, "list users for reset")
	}

	result := &ResetResult{}
	for _, userId := range userIds {
		if err := resetUser(db, userId); err != nil {
			result.Failed++
			Logger.Log.Error("points reset failed for user ", userId, ": ", err)
			continue
		}
		result.Processed++
	}

	Logger.Log.Info("points reset completed, processed ", result.Processed, " users, failed ", result.Failed)
	return result, nil
}

// resetUser runs one user's reset in its own transaction so the lock scope
// stays a single row.
func resetUser(db *gorm.DB, userId string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user model.User
		// Re-read under lock, the balance may have moved since listing.
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userId).First(&user)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "read user %s", userId)
		}

		if user.PointsBalance > 0 {
			reset := model.PointTransaction{
				Id:     uuid.New().String(),
				UserID: userId,
				Amount: -user.PointsBalance,
				Type:   model.TransactionTypeWeeklyReset,
			}
			if err := tx.Create(&reset).Error; err != nil {
				return errors.Wrap(err, "append reset entry")
			}
		}

		allocation := model.PointTransaction{
			Id:     uuid.New().String(),
			UserID: userId,
			Amount: ledger.WeeklyAllocation,
			Type:   model.TransactionTypeWeeklyAllocation,
		}
		if err := tx.Create(&allocation).Error; err != nil {
			return errors.Wrap(err, "append allocation entry")
		}

		// Absolute set, not a relative delta: the reset reallocates the
		// account to a fixed allowance, it is not a transfer.
		return tx.Model(&model.User{}).Where("id = ?", userId).
			UpdateColumn("points_balance", ledger.WeeklyAllocation).Error
	})
}
