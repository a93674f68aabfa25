//go:build !linux

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: shm_other.go
Description: Placeholder for platforms without the SysV shared memory calls we use.
*/

package shm

import (
	"fmt"
	"runtime"

	"github.com/kleascm/showmap/pkg/interfaces"
)

// Acquire always fails outside Linux
func Acquire(size int) (*Channel, error) {
	return nil, fmt.Errorf("%w: SysV shared memory is not supported on %s", interfaces.ErrResourceInit, runtime.GOOS)
}
