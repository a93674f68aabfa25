/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Diagnostic logging for showmap. Wraps logrus with the level and
format choices the CLI exposes. Logs always go to the diagnostic stream so that
stdout carries nothing but tuples.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level" mapstructure:"level"`
	Format    LogFormat `json:"format" mapstructure:"format"`
	Timestamp bool      `json:"timestamp" mapstructure:"timestamp"`
	Caller    bool      `json:"caller" mapstructure:"caller"`
	Colors    bool      `json:"colors" mapstructure:"colors"`

	// Output defaults to os.Stderr
	Output io.Writer `json:"-" mapstructure:"-"`
}

// Validate checks the LoggerConfig for invalid or missing values.
func (c *LoggerConfig) Validate() error {
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// DefaultConfig only lets warnings and errors through
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelWarning,
		Format:    LogFormatCustom,
		Timestamp: false,
		Caller:    false,
		Colors:    false,
	}
}

// Logger provides logging for one showmap invocation
type Logger struct {
	config    *LoggerConfig
	logger    *logrus.Logger
	startTime time.Time
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
	}

	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

// setup configures the logger with the given configuration
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.WarnLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if l.config.Output != nil {
		l.logger.SetOutput(l.config.Output)
	} else {
		l.logger.SetOutput(os.Stderr)
	}

	return l.setFormatter()
}

// setFormatter configures the log formatter
func (l *Logger) setFormatter() error {
	prettyCaller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: prettyCaller,
		})

	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			DisableTimestamp: !l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: prettyCaller,
		})

	case LogFormatCustom:
		l.logger.SetFormatter(&ShowmapFormatter{
			CustomFormatter: CustomFormatter{
				Timestamp: l.config.Timestamp,
				Caller:    l.config.Caller,
				Colors:    l.config.Colors,
			},
		})

	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}

	return nil
}

// LogSharedMemory logs the segment backing the bitmap
func (l *Logger) LogSharedMemory(id int, size int) {
	l.logger.WithFields(logrus.Fields{
		"shm_id": id,
		"size":   size,
	}).Debug("Shared memory attached")
}

// LogCoverage logs how much of the bitmap the run touched
func (l *Logger) LogCoverage(runID string, tuples int, buckets map[byte]int) {
	fields := logrus.Fields{
		"run_id":  runID,
		"tuples":  tuples,
		"elapsed": l.Elapsed(),
	}
	for bucket, n := range buckets {
		fields[fmt.Sprintf("bucket_%d", bucket)] = n
	}
	l.logger.WithFields(fields).Info("Coverage recorded")
}

// LogCrash logs a traced child that died from a signal
func (l *Logger) LogCrash(runID string, pid int32, signal int) {
	l.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"child_pid": pid,
		"signal":    signal,
	}).Warn("Target killed by signal")
}

// Elapsed returns the time since the logger was created, which is the
// start of the showmap run
func (l *Logger) Elapsed() time.Duration {
	return time.Since(l.startTime)
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}
