package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus to provide structured logging with a few
// fixed fields that every service log line should carry.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus settings. Output is JSON on stdout
// so log collection can parse it downstream.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// ParseLevel maps a config string to a logrus level, defaulting to info.
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// New creates a Logger with the service name preset.
func New(serviceName string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
		}),
	}
}

// WithUser returns a Logger carrying the acting user's ID.
func (l *Logger) WithUser(userID string) *Logger {
	return &Logger{entry: l.entry.WithField("user_id", userID)}
}

// WithField returns a Logger carrying an extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithPayload attaches custom business data to the log entry.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

func (l *Logger) Info(message string)  { l.entry.Info(message) }
func (l *Logger) Warn(message string)  { l.entry.Warn(message) }
func (l *Logger) Error(message string) { l.entry.Error(message) }
func (l *Logger) Debug(message string) { l.entry.Debug(message) }
func (l *Logger) Fatal(message string) { l.entry.Fatal(message) }
