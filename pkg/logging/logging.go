// Package logging holds the shared application logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// Init configures the shared logger from LOG_LEVEL (debug/info/warn/error,
// default info). JSON output goes to stdout.
func Init() {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.InfoLevel)
	}
}
