/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: showmap.go
Description: The showmap command. Acquires the coverage bitmap, runs the target
once through the fork server, and prints the tuples it recorded. Shared memory
is released on every exit path, including fatal errors and signals.
*/

package commands

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kleascm/showmap/pkg/coverage"
	"github.com/kleascm/showmap/pkg/execution"
	"github.com/kleascm/showmap/pkg/interfaces"
	"github.com/kleascm/showmap/pkg/logging"
	"github.com/kleascm/showmap/pkg/reporting"
	"github.com/kleascm/showmap/pkg/shm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const usageLong = `Shows all instrumentation tuples recorded when executing a binary built with
fork-server instrumentation. Set AFL_SINK_OUTPUT=1 to sink all output from the
executed program, or AFL_QUIET=1 to suppress non-fatal messages from this tool.`

// NewRootCommand builds the showmap command with its own viper instance
func NewRootCommand(version string) *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "showmap /path/to/traced_app [ ... ]",
		Short:         "Run an instrumented program once and display its coverage map",
		Long:          usageLong,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return interfaces.ErrUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := LoadConfig(v); err != nil {
				return err
			}
			config, err := BuildConfig(v, args)
			if err != nil {
				return err
			}
			config.Stdout = cmd.OutOrStdout()
			config.Stderr = cmd.ErrOrStderr()

			logger, err := logging.NewLogger(BuildLoggerConfig(v, config))
			if err != nil {
				return err
			}
			return RunShowmap(config, version, logger, execution.NewForkServerLauncher(logger.GetLogger()))
		},
	}

	// Everything after the target path belongs to the target.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Flags().String("config", "", "Configuration file path")
	rootCmd.Flags().BoolP("quiet", "q", false, "Suppress non-fatal messages (same as AFL_QUIET)")
	rootCmd.Flags().Bool("sink-output", false, "Discard the target's stdout and stderr (same as AFL_SINK_OUTPUT)")
	rootCmd.Flags().String("format", string(interfaces.FormatText), "Tuple output format (text, json)")
	rootCmd.Flags().String("log-level", string(logging.LogLevelWarning), "Logging level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", string(logging.LogFormatCustom), "Log format (text, json, custom)")
	rootCmd.Flags().Bool("log-timestamps", false, "Include timestamps in log lines")

	v.BindPFlag("config", rootCmd.Flags().Lookup("config"))
	v.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
	v.BindPFlag("sink_output", rootCmd.Flags().Lookup("sink-output"))
	v.BindPFlag("format", rootCmd.Flags().Lookup("format"))
	v.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
	v.BindPFlag("log_format", rootCmd.Flags().Lookup("log-format"))
	v.BindPFlag("log_timestamps", rootCmd.Flags().Lookup("log-timestamps"))

	return rootCmd
}

// RunShowmap executes the target once and reports its coverage
func RunShowmap(config *interfaces.Config, version string, logger *logging.Logger, launcher interfaces.Launcher) error {
	log := logger.GetLogger()
	reporter := reporting.NewReporter(config)
	reporter.Banner(version)

	cleanup := newSignalCleanup(log)
	defer cleanup.Stop()

	channel, err := cleanup.Acquire(interfaces.MapSize)
	if err != nil {
		return err
	}
	defer func() {
		if err := channel.Release(); err != nil {
			log.WithError(err).Debug("Shared memory release failed")
		}
	}()
	logger.LogSharedMemory(channel.ID, len(channel.Bitmap))

	reporter.OutputBegins()
	result, err := launcher.Run(config, channel.Expose(os.Environ()))
	if err != nil {
		return err
	}
	if result.Signaled {
		reporter.SignalNotice(result.Signal)
		logger.LogCrash(result.RunID, result.ChildPID, int(result.Signal))
	}
	reporter.OutputEnds()

	// The fork server has reported the child's exit, so the child is done
	// writing and the bitmap can be read without locking.
	if coverage.CountBits(channel.Bitmap) == 0 {
		return interfaces.ErrEmptyResult
	}

	coverage.ClassifyCounts(channel.Bitmap)
	summary := coverage.Summarize(channel.Bitmap)
	logger.LogCoverage(result.RunID, summary.Tuples, summary.Buckets)

	return reporter.Report(config, result, channel.Bitmap)
}

// signalCleanup removes the segment and exits if showmap itself is
// interrupted. The hook is armed before the segment exists; a signal that
// arrives during Acquire is handled once Acquire returns.
type signalCleanup struct {
	mu      sync.Mutex
	channel *shm.Channel
	sigChan chan os.Signal
	done    chan struct{}
}

func newSignalCleanup(log *logrus.Logger) *signalCleanup {
	s := &signalCleanup{
		sigChan: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(s.sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go s.wait(log)
	return s
}

// Acquire creates the segment while holding off the signal handler
func (s *signalCleanup) Acquire(size int) (*shm.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := shm.Acquire(size)
	if err != nil {
		return nil, err
	}
	s.channel = channel
	return channel, nil
}

func (s *signalCleanup) wait(log *logrus.Logger) {
	select {
	case sig := <-s.sigChan:
		log.WithField("signal", sig.String()).Warn("Interrupted, removing shared memory")
		s.mu.Lock()
		if s.channel != nil {
			if err := s.channel.Remove(); err != nil {
				log.WithError(err).Debug("Shared memory removal failed")
			}
		}
		code := 1
		if n, ok := sig.(syscall.Signal); ok {
			code = 128 + int(n)
		}
		os.Exit(code)
	case <-s.done:
	}
}

// Stop unhooks the handler
func (s *signalCleanup) Stop() {
	signal.Stop(s.sigChan)
	close(s.done)
}
