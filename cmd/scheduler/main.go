package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/kansha-app/kansha/jobs"
	"github.com/kansha-app/kansha/utils"
	"github.com/kansha-app/kansha/utils/dotenv"
	Flag "github.com/kansha-app/kansha/utils/flag"
	Logger "github.com/kansha-app/kansha/utils/log"
)

// The scheduler binary triggers the weekly points reset and the notification
// retention purge in process, for deployments without an external cron
// service. The Redis period marker keeps it from double-running against an
// external trigger.
func main() {
	Flag.ParseFlags()
	Logger.InitLogger()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("cannot connect to DB: ", err)
	}

	scheduler := jobs.NewScheduler(db, utils.GetRedisClient())
	scheduler.Start()
	defer scheduler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	Logger.Log.Info("scheduler shutting down")
}
