/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error taxonomy for showmap. Every failure is fatal for a single-shot
run; the sentinels let the command decide messages and tests match causes.
*/

package interfaces

import "errors"

var (
	// ErrUsage means the target path was not given
	ErrUsage = errors.New("usage error")

	// ErrResourceInit means the shared memory segment could not be created or attached
	ErrResourceInit = errors.New("shared memory setup failed")

	// ErrSpawn means the target could not be executed
	ErrSpawn = errors.New("unable to execute target")

	// ErrProtocol means the fork-server handshake was violated, which almost
	// always means the target lacks the instrumentation runtime
	ErrProtocol = errors.New("no instrumentation detected or fork server fault")

	// ErrEmptyResult means the handshake worked but nothing was recorded
	ErrEmptyResult = errors.New("no instrumentation data recorded")
)
