// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"lifecycle_notification_service/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const serviceName = "lifecycle_scheduler"

// Log is the global logger instance
var Log = logrus.New()

// environment is stamped on every entry returned by Service.
var environment = "development"

// Init configures the global logger: level from LOG_LEVEL, JSON output in
// production and staging, colored text elsewhere.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)
	environment = strings.ToLower(cfg.Environment)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if isStructuredEnv(environment) {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	Service().WithField("level", Log.GetLevel().String()).Info("Logger initialized")
}

func isStructuredEnv(env string) bool {
	return env == "production" || env == "staging"
}

// Service returns the root entry every component logger derives from.
func Service() *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"service":     serviceName,
		"environment": environment,
	})
}
