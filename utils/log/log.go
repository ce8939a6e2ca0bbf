package log

import (
	"os"

	"github.com/kansha-app/kansha/utils/flag"
	"github.com/sirupsen/logrus"
)

const ProdEnv = "prod"

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	// JSON in production for the log shipper, plain text locally for
	// readability.
	if os.Getenv("KANSHA_ENV") == ProdEnv {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	Log = logger.WithFields(
		logrus.Fields{"service": flag.ServiceName, "is_development": os.Getenv("KANSHA_ENV") != ProdEnv},
	)
}
