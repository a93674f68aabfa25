/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Configuration loading for showmap. Merges command-line flags, an
optional config file, SHOWMAP_* variables and the AFL_QUIET / AFL_SINK_OUTPUT
toggles understood by the instrumentation tooling into one Config.
*/

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/kleascm/showmap/pkg/interfaces"
	"github.com/kleascm/showmap/pkg/logging"
	"github.com/spf13/viper"
)

// LoadConfig reads the config file, if any, and enables environment lookups
func LoadConfig(v *viper.Viper) error {
	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOWMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The AFL toggles are enabled by presence, whatever the value.
	if err := v.BindEnv("afl_quiet", "AFL_QUIET"); err != nil {
		return err
	}
	if err := v.BindEnv("afl_sink_output", "AFL_SINK_OUTPUT"); err != nil {
		return err
	}

	return nil
}

// BuildConfig turns the loaded settings and positional arguments into a Config
func BuildConfig(v *viper.Viper, args []string) (*interfaces.Config, error) {
	if len(args) < 1 || args[0] == "" {
		return nil, fmt.Errorf("%w: no target program given", interfaces.ErrUsage)
	}

	config := &interfaces.Config{
		TargetPath: args[0],
		TargetArgs: args[1:],
		Quiet:      v.GetBool("quiet") || v.GetString("afl_quiet") != "",
		SinkOutput: v.GetBool("sink_output") || v.GetString("afl_sink_output") != "",
		Format:     interfaces.OutputFormat(v.GetString("format")),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}

	switch config.Format {
	case interfaces.FormatText, interfaces.FormatJSON:
	case "":
		config.Format = interfaces.FormatText
	default:
		return nil, fmt.Errorf("%w: unsupported output format %q", interfaces.ErrUsage, config.Format)
	}

	return config, nil
}

// BuildLoggerConfig maps the logging settings onto the logging package
func BuildLoggerConfig(v *viper.Viper, config *interfaces.Config) *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level := v.GetString("log_level"); level != "" {
		lc.Level = logging.LogLevel(level)
	}
	if format := v.GetString("log_format"); format != "" {
		lc.Format = logging.LogFormat(format)
	}
	lc.Timestamp = v.GetBool("log_timestamps")
	lc.Output = config.Stderr
	return lc
}
