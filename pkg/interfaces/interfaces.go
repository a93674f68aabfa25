/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared types for showmap. Holds the wire constants agreed with the
instrumentation runtime, the per-invocation configuration, and the result of a
single fork-server run so packages can share them without import cycles.
*/

package interfaces

import (
	"io"
	"syscall"
)

// Wire constants shared with the instrumentation runtime. Changing any of
// these breaks compatibility with instrumented targets.
const (
	// MapSize is the size of the coverage bitmap in bytes
	MapSize = 1 << 16

	// ForkServerFD is the descriptor the fork server reads control frames from.
	// Status frames are written to ForkServerFD+1.
	ForkServerFD = 198

	// ShmEnvVar carries the shared memory identifier to the target
	ShmEnvVar = "__AFL_SHM_ID"

	// FrameSize is the size of every handshake frame
	FrameSize = 4
)

// OutputFormat selects how tuples are rendered
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Config holds everything a single showmap invocation needs.
// It is built once at startup and passed by pointer to every component.
type Config struct {
	TargetPath string
	TargetArgs []string

	// Quiet suppresses the banner and other non-fatal chatter
	Quiet bool
	// SinkOutput sends the target's stdout and stderr to the null device
	SinkOutput bool

	Format OutputFormat

	// Stdout receives tuples, Stderr receives notices and diagnostics.
	// Both default to the process streams when nil.
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult describes how the traced child finished
type RunResult struct {
	RunID    string
	Hello    uint32
	ChildPID int32
	Status   syscall.WaitStatus
	Signaled bool
	Signal   syscall.Signal
}

// NewRunResult derives the signal fields from a raw wait status
func NewRunResult(runID string, hello uint32, pid int32, raw uint32) RunResult {
	ws := syscall.WaitStatus(raw)
	res := RunResult{
		RunID:    runID,
		Hello:    hello,
		ChildPID: pid,
		Status:   ws,
	}
	if ws.Signaled() {
		res.Signaled = true
		res.Signal = ws.Signal()
	}
	return res
}

// Launcher runs the target once and reports how it finished
type Launcher interface {
	Run(config *Config, env []string) (RunResult, error)
}
