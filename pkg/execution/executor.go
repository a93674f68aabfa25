/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: executor.go
Description: Fork-server launcher for showmap. Starts the instrumented target
with the control and status pipes mapped onto the fixed protocol descriptors,
runs the handshake, and reports how the traced child finished.
*/

package execution

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/kleascm/showmap/pkg/interfaces"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ForkServerLauncher implements interfaces.Launcher
type ForkServerLauncher struct {
	logger *logrus.Logger
}

// NewForkServerLauncher creates a launcher that logs through logger
func NewForkServerLauncher(logger *logrus.Logger) *ForkServerLauncher {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &ForkServerLauncher{logger: logger}
}

// Run starts config.TargetPath with env and blocks until the fork server has
// reported the child's exit status. There is no timeout: a fork server that
// never answers blocks Run forever.
func (l *ForkServerLauncher) Run(config *interfaces.Config, env []string) (interfaces.RunResult, error) {
	runID := uuid.New().String()
	log := l.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"target": config.TargetPath,
	})

	stRead, stWrite, err := os.Pipe()
	if err != nil {
		return interfaces.RunResult{}, fmt.Errorf("pipe() failed: %w", err)
	}
	defer stRead.Close()
	defer stWrite.Close()

	ctlRead, ctlWrite, err := os.Pipe()
	if err != nil {
		return interfaces.RunResult{}, fmt.Errorf("pipe() failed: %w", err)
	}
	defer ctlRead.Close()
	defer ctlWrite.Close()

	// Child setup happens in this order: descriptor limit, output
	// redirection, descriptor remap, exec.
	raiseFDLimit(log)

	cmd := exec.Command(config.TargetPath, config.TargetArgs...)
	// The path is used as given, without a $PATH search. A bare name is
	// relative to the working directory.
	cmd.Path = config.TargetPath
	cmd.Err = nil
	cmd.Env = env
	cmd.Stdin = os.Stdin
	if config.SinkOutput {
		// nil streams are connected to the null device
		cmd.Stdout = nil
		cmd.Stderr = nil
	} else {
		cmd.Stdout = writerOr(config.Stdout, os.Stdout)
		cmd.Stderr = writerOr(config.Stderr, os.Stderr)
	}
	cmd.ExtraFiles = forkServerFiles(ctlRead, stWrite)

	if err := cmd.Start(); err != nil {
		log.WithError(err).Debug("Target failed to start")
		return interfaces.RunResult{}, fmt.Errorf("%w '%s': %v", interfaces.ErrSpawn, config.TargetPath, err)
	}
	log = log.WithField("forksrv_pid", cmd.Process.Pid)
	log.Debug("Fork server started")

	// Only the child keeps these ends.
	ctlRead.Close()
	stWrite.Close()

	frames, err := Handshake(ctlWrite, stRead)
	if err != nil {
		log.WithError(err).Debug("Handshake failed")
		cmd.Process.Kill()
		cmd.Wait()
		return interfaces.RunResult{}, err
	}

	result := interfaces.NewRunResult(runID, frames.Hello, frames.PID, frames.Status)
	log.WithFields(logrus.Fields{
		"hello":     frames.Hello,
		"child_pid": result.ChildPID,
		"status":    frames.Status,
		"signaled":  result.Signaled,
	}).Debug("Handshake complete")

	// Closing the control pipe makes the fork server's next read fail,
	// which is its cue to exit. Waiting reaps it and drains output copying.
	ctlWrite.Close()
	stRead.Close()
	if err := cmd.Wait(); err != nil {
		log.WithError(err).Debug("Fork server exited")
	}

	return result, nil
}

// forkServerFiles lays out ExtraFiles so that ctl becomes ForkServerFD and st
// becomes ForkServerFD+1 in the child. Every other slot is nil and is closed.
func forkServerFiles(ctl, st *os.File) []*os.File {
	files := make([]*os.File, interfaces.ForkServerFD-3+2)
	files[interfaces.ForkServerFD-3] = ctl
	files[interfaces.ForkServerFD-3+1] = st
	return files
}

// raiseFDLimit makes sure the protocol descriptors fit under RLIMIT_NOFILE.
// Failures are ignored.
func raiseFDLimit(log *logrus.Entry) {
	var r unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &r); err != nil {
		log.WithError(err).Debug("getrlimit() failed")
		return
	}
	need := uint64(interfaces.ForkServerFD + 2)
	if r.Cur >= need {
		return
	}
	r.Cur = need
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &r); err != nil {
		log.WithError(err).Debug("setrlimit() failed")
	}
}

func writerOr(w io.Writer, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
