package main

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kansha-app/kansha/notifier"
	"github.com/kansha-app/kansha/server/api"
	"github.com/kansha-app/kansha/utils"
	"github.com/kansha-app/kansha/utils/dotenv"
	Flag "github.com/kansha-app/kansha/utils/flag"
	Logger "github.com/kansha-app/kansha/utils/log"
)

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
	utils.DatabaseSetupAndMigration(db)

	// The notification writer must be consuming before any handler can
	// publish, otherwise early events are dropped.
	bus := notifier.NewBus(db)
	go bus.Run(context.Background())
	defer bus.Close()

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())

	server := api.NewServer(db, bus, utils.GetRedisClient())
	server.RegisterRoutes(router)

	// Health check for the load balancer.
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	Logger.Log.Info("api server starts up")
	router.Run(":8080")
}
