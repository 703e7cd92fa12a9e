package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
	config *config.LoggingConfig
}

// Fields represents a map of fields for structured logging
type Fields map[string]interface{}

// New creates a new logger instance
func New(cfg *config.LoggingConfig) (*Logger, error) {
	logger := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	// Set format
	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	}

	// Set output
	var output io.Writer
	switch cfg.Output {
	case "file":
		// Ensure log directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	case "stdout":
		output = os.Stdout
	default:
		output = os.Stdout
	}

	logger.SetOutput(output)

	return &Logger{
		Logger: logger,
		config: cfg,
	}, nil
}

// WithFields adds fields to log entry
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithField adds a single field to log entry
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError adds an error field to log entry
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// Request logging helpers
func (l *Logger) LogRequest(method, path, userAgent, clientIP string, statusCode int, duration int64) {
	l.WithFields(Fields{
		"method":      method,
		"path":        path,
		"user_agent":  userAgent,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": duration,
		"type":        "request",
	}).Info("HTTP request")
}

// LogIntegration records a lifecycle event for an integration (registered,
// activated, deactivated, deleted).
func (l *Logger) LogIntegration(integrationID uint, name, action string, success bool, errMsg string) {
	entry := l.WithFields(Fields{
		"integration_id": integrationID,
		"name":           name,
		"action":         action,
		"success":        success,
		"type":           "integration",
	})

	if errMsg != "" {
		entry = entry.WithField("error", errMsg)
	}

	if success {
		entry.Info("Integration event")
	} else {
		entry.Error("Integration event failed")
	}
}

// LogDispatch records the outcome of a webhook fan-out.
func (l *Logger) LogDispatch(eventType string, successful, failed, total int) {
	entry := l.WithFields(Fields{
		"event_type": eventType,
		"successful": successful,
		"failed":     failed,
		"total":      total,
		"type":       "dispatch",
	})

	if failed > 0 {
		entry.Warn("Webhook dispatch completed with failures")
	} else {
		entry.Info("Webhook dispatch completed")
	}
}

// LogDelivery records a single webhook delivery attempt.
func (l *Logger) LogDelivery(integrationID, webhookID uint, eventType, endpointURL string, success bool, errMsg string) {
	entry := l.WithFields(Fields{
		"integration_id": integrationID,
		"webhook_id":     webhookID,
		"event_type":     eventType,
		"endpoint_url":   endpointURL,
		"success":        success,
		"type":           "delivery",
	})

	if errMsg != "" {
		entry = entry.WithField("error", errMsg)
	}

	if success {
		entry.Info("Webhook delivered")
	} else {
		entry.Error("Webhook delivery failed")
	}
}

// LogSync records a sync scheduler firing for an integration.
func (l *Logger) LogSync(integrationID uint, name string, success bool, errMsg string) {
	entry := l.WithFields(Fields{
		"integration_id": integrationID,
		"name":           name,
		"success":        success,
		"type":           "sync",
	})

	if errMsg != "" {
		entry = entry.WithField("error", errMsg)
	}

	if success {
		entry.Info("Integration sync completed")
	} else {
		entry.Error("Integration sync failed")
	}
}

// LogAPICall records a direct outbound API call through an integration.
func (l *Logger) LogAPICall(integrationID uint, method, url string, statusCode int, success bool, errMsg string) {
	entry := l.WithFields(Fields{
		"integration_id": integrationID,
		"method":         method,
		"url":            url,
		"status_code":    statusCode,
		"success":        success,
		"type":           "api_call",
	})

	if errMsg != "" {
		entry = entry.WithField("error", errMsg)
	}

	if success {
		entry.Info("API call completed")
	} else {
		entry.Error("API call failed")
	}
}

// LogIncoming records a received webhook.
func (l *Logger) LogIncoming(integrationID uint, sourceIP string, success bool, errMsg string) {
	entry := l.WithFields(Fields{
		"integration_id": integrationID,
		"source_ip":      sourceIP,
		"success":        success,
		"type":           "incoming",
	})

	if errMsg != "" {
		entry = entry.WithField("error", errMsg)
	}

	if success {
		entry.Info("Webhook received")
	} else {
		entry.Error("Webhook processing failed")
	}
}

func (l *Logger) LogSystem(component string, action string, success bool, details map[string]interface{}) {
	fields := Fields{
		"component": component,
		"action":    action,
		"success":   success,
		"type":      "system",
	}

	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)
	if success {
		entry.Info("System event")
	} else {
		entry.Error("System event failed")
	}
}

// Global logger instance
var defaultLogger *Logger

// Init initializes the default logger
func Init(cfg *config.LoggingConfig) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	return defaultLogger
}

// Convenience functions for global logger
func Debug(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debug(args...)
	}
}

func Info(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Info(args...)
	}
}

func Warn(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warn(args...)
	}
}

func Error(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Error(args...)
	}
}

func Fatal(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Fatal(args...)
	}
}

func WithFields(fields Fields) *logrus.Entry {
	if defaultLogger != nil {
		return defaultLogger.WithFields(fields)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithError(err error) *logrus.Entry {
	if defaultLogger != nil {
		return defaultLogger.WithError(err)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
