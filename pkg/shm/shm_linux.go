/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: shm_linux.go
Description: SysV shared memory acquisition for Linux.
*/

package shm

import (
	"fmt"

	"github.com/kleascm/showmap/pkg/interfaces"
	"golang.org/x/sys/unix"
)

// Acquire creates a fresh private segment of exactly size bytes and attaches it
// read/write. A failure here is never retried.
func Acquire(size int) (*Channel, error) {
	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|unix.IPC_EXCL|0600)
	if err != nil {
		return nil, fmt.Errorf("%w: shmget() failed: %v", interfaces.ErrResourceInit, err)
	}

	mem, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		if rmErr := removeSegment(id); rmErr != nil {
			return nil, fmt.Errorf("%w: shmat() failed: %v (segment %d not removed: %v)", interfaces.ErrResourceInit, err, id, rmErr)
		}
		return nil, fmt.Errorf("%w: shmat() failed: %v", interfaces.ErrResourceInit, err)
	}

	return &Channel{
		ID:     id,
		Bitmap: mem,
		detach: unix.SysvShmDetach,
		remove: removeSegment,
	}, nil
}

func removeSegment(id int) error {
	_, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil)
	return err
}
