/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: shm.go
Description: Bitmap channel for showmap. Owns the SysV shared memory segment the
instrumented target writes hit counts into, publishes its identifier through the
child's environment, and guarantees the segment is removed exactly once.
*/

package shm

import (
	"strconv"
	"strings"
	"sync"

	"github.com/kleascm/showmap/pkg/interfaces"
)

// Channel is an attached shared memory segment holding the coverage bitmap
type Channel struct {
	ID     int
	Bitmap []byte

	removeOnce sync.Once
	detachOnce sync.Once
	removeErr  error
	detachErr  error

	detach func([]byte) error
	remove func(int) error
}

// Expose returns env with the segment identifier bound to the variable the
// instrumentation runtime looks for. Any previous binding is replaced.
func (c *Channel) Expose(env []string) []string {
	prefix := interfaces.ShmEnvVar + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, prefix+strconv.Itoa(c.ID))
}

// Remove marks the segment for destruction. The kernel frees it once the last
// attachment goes away, so the mapping stays readable until then. Safe to call
// from another goroutine while the bitmap is in use.
func (c *Channel) Remove() error {
	c.removeOnce.Do(func() {
		if c.remove != nil {
			c.removeErr = c.remove(c.ID)
		}
	})
	return c.removeErr
}

// Release removes and detaches the segment. Only the first call does work;
// later calls return the first result. The bitmap must not be used afterwards.
func (c *Channel) Release() error {
	removeErr := c.Remove()
	c.detachOnce.Do(func() {
		if c.detach != nil && c.Bitmap != nil {
			c.detachErr = c.detach(c.Bitmap)
		}
		c.Bitmap = nil
	})
	if removeErr != nil {
		return removeErr
	}
	return c.detachErr
}
