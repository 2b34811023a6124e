package config

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const serviceName = "civictrack-be"

// staticFieldsHook stamps the same fields on every entry.
type staticFieldsHook logrus.Fields

func (h staticFieldsHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h staticFieldsHook) Fire(e *logrus.Entry) error {
	for k, v := range h {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}

// NewLogger creates the application logger. level overrides the per-environment
// default when it parses. Every entry carries the service name and env.
func NewLogger(env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.DateTime})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	}
	logger.AddHook(staticFieldsHook{"service": serviceName, "env": env})

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			logger.WithField("log_level", level).Warn("invalid LOG_LEVEL, keeping default")
		} else {
			logger.SetLevel(lvl)
		}
	}

	return logger
}
