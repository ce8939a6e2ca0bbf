package jobs

import (
	"github.com/kansha-app/kansha/utils"
	Logger "github.com/kansha-app/kansha/utils/log"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	// Monday 00:00 UTC, the start of a new allowance period.
	weeklyResetSpec = "0 0 * * 1"
	// Retention runs nightly off peak.
	retentionSpec = "0 3 * * *"
)

// Scheduler triggers the periodic jobs in process, as an alternative to an
// external scheduler calling the /api/cron endpoints. The period marker in
// Redis keeps the two triggers from double-running a reset.
type Scheduler struct {
	cron  *cron.Cron
	db    *gorm.DB
	redis *utils.RedisClient
}

func NewScheduler(db *gorm.DB, redis *utils.RedisClient) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		db:    db,
		redis: redis,
	}
}

// Start registers the jobs and starts the cron loop. Job errors are logged,
// a failing run never stops the schedule.
func (s *Scheduler) Start() {
	s.cron.AddFunc(weeklyResetSpec, func() {
		Logger.Log.Info("[CRON] weekly points reset")
		if _, err := RunWeeklyReset(s.db, s.redis); err != nil {
			Logger.Log.Error("[CRON] weekly points reset failed: ", err)
		}
	})

	s.cron.AddFunc(retentionSpec, func() {
		Logger.Log.Info("[CRON] notification retention purge")
		deleted, err := DeleteOldNotifications(s.db)
		if err != nil {
			Logger.Log.Error("[CRON] notification retention purge failed: ", err)
			return
		}
		Logger.Log.Info("[CRON] purged ", deleted, " old notifications")
	})

	s.cron.Start()
	Logger.Log.Info("scheduler started")
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	Logger.Log.Info("scheduler stopped")
}
