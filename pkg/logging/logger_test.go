/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for logger construction, validation and the formatters.
*/

package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kleascm/showmap/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerCreation tests logger creation with default and custom configurations
func TestLoggerCreation(t *testing.T) {
	logger, err := logging.NewLogger(nil)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLogger().GetLevel())

	var buf bytes.Buffer
	logger, err = logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelDebug,
		Format: logging.LogFormatJSON,
		Output: &buf,
	})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLogger().GetLevel())

	logger.LogSharedMemory(7, 65536)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Shared memory attached", entry["msg"])
	assert.Equal(t, float64(7), entry["shm_id"])
}

// TestLoggerConfigValidate tests rejection of unknown levels and formats
func TestLoggerConfigValidate(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Level = "chatty"
	assert.Error(t, cfg.Validate())

	cfg = logging.DefaultConfig()
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	_, err := logging.NewLogger(cfg)
	assert.Error(t, err)
}

// TestLogLevels tests that the level gates output
func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelWarning,
		Format: logging.LogFormatCustom,
		Output: &buf,
	})
	require.NoError(t, err)

	logger.LogSharedMemory(1, 16)
	logger.LogCoverage("run", 2, map[byte]int{1: 2})
	assert.Empty(t, buf.String(), "debug and info are below warn")

	logger.LogCrash("run", 1234, 11)
	assert.Contains(t, buf.String(), "WARNING Target killed by signal")
	assert.Contains(t, buf.String(), "signal=11")
}

// TestCustomFormatter tests the custom formatter
func TestCustomFormatter(t *testing.T) {
	formatter := &logging.CustomFormatter{
		Timestamp: true,
		Caller:    false,
		Colors:    false,
	}

	entry := &logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "Test message",
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Data: logrus.Fields{
			"key2": 42,
			"key1": "value1",
		},
	}

	formatted, err := formatter.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "03:04:05.000 INFO Test message key1=value1 key2=42\n", string(formatted))
}

// TestCustomFormatterValues tests rendering of the field types showmap logs
func TestCustomFormatterValues(t *testing.T) {
	formatter := &logging.CustomFormatter{}

	entry := &logrus.Entry{
		Level:   logrus.DebugLevel,
		Message: "Handshake complete",
		Data: logrus.Fields{
			"status":  uint32(0x8b),
			"error":   errors.New("short read"),
			"target":  "/tmp/my target",
			"elapsed": 1500 * time.Nanosecond,
			"pid":     int32(1234),
		},
	}

	formatted, err := formatter.Format(entry)
	require.NoError(t, err)
	assert.Equal(t,
		`DEBUG Handshake complete elapsed=2µs error="short read" pid=1234 status=0x0000008b target="/tmp/my target"`+"\n",
		string(formatted))
}

// TestCustomFormatterColors tests that colors wrap the level and fields
func TestCustomFormatterColors(t *testing.T) {
	formatter := &logging.CustomFormatter{Colors: true}

	formatted, err := formatter.Format(&logrus.Entry{
		Level:   logrus.WarnLevel,
		Message: "Target killed by signal",
		Data:    logrus.Fields{"signal": 11},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"\033[33mWARNING\033[0m Target killed by signal \033[34msignal\033[0m=\033[32m11\033[0m\n",
		string(formatted))
}

// TestLogCoverageElapsed tests that the coverage entry carries the run time
func TestLogCoverageElapsed(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelInfo,
		Format: logging.LogFormatJSON,
		Output: &buf,
	})
	require.NoError(t, err)

	logger.LogCoverage("run", 2, map[byte]int{1: 1, 8: 1})
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry, "elapsed")
	assert.Equal(t, float64(2), entry["tuples"])
	assert.Equal(t, float64(1), entry["bucket_8"])
	assert.GreaterOrEqual(t, logger.Elapsed(), time.Duration(0))
}

// TestShowmapFormatter tests the stage tags
func TestShowmapFormatter(t *testing.T) {
	formatter := &logging.ShowmapFormatter{
		CustomFormatter: logging.CustomFormatter{},
	}

	testCases := []struct {
		message string
		prefix  string
	}{
		{"Shared memory attached", "SHM"},
		{"Fork server started", "FORKSRV"},
		{"Target failed to start", "FORKSRV"},
		{"Handshake complete", "HANDSHAKE"},
		{"Coverage recorded", "COVERAGE"},
		{"Random message", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.message, func(t *testing.T) {
			entry := &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: tc.message,
				Time:    time.Now(),
				Data:    logrus.Fields{},
			}

			formatted, err := formatter.Format(entry)
			require.NoError(t, err)
			formattedStr := string(formatted)

			if tc.prefix != "" {
				assert.Contains(t, formattedStr, "["+tc.prefix+"]")
			} else {
				assert.NotContains(t, formattedStr, "[")
			}
		})
	}
}
