/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: shm_internal_test.go
Description: Release and Remove error reporting with stubbed system calls.
*/

package shm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestReleaseReportsRemoveError tests that a failed IPC_RMID reaches the caller
// and that the mapping is still detached
func TestReleaseReportsRemoveError(t *testing.T) {
	rmErr := errors.New("remove failed")
	removes, detaches := 0, 0
	ch := &Channel{
		ID:     42,
		Bitmap: make([]byte, 16),
		remove: func(int) error { removes++; return rmErr },
		detach: func([]byte) error { detaches++; return nil },
	}

	assert.ErrorIs(t, ch.Release(), rmErr)
	assert.ErrorIs(t, ch.Release(), rmErr)
	assert.Equal(t, 1, removes)
	assert.Equal(t, 1, detaches)
	assert.Nil(t, ch.Bitmap)
}

// TestReleaseReportsDetachError tests that a failed detach reaches the caller
func TestReleaseReportsDetachError(t *testing.T) {
	dtErr := errors.New("detach failed")
	ch := &Channel{
		ID:     42,
		Bitmap: make([]byte, 16),
		remove: func(int) error { return nil },
		detach: func([]byte) error { return dtErr },
	}

	assert.ErrorIs(t, ch.Release(), dtErr)
}

// TestRemoveBeforeRelease tests that a signal-time Remove is not repeated by Release
func TestRemoveBeforeRelease(t *testing.T) {
	removes := 0
	ch := &Channel{
		ID:     42,
		Bitmap: make([]byte, 16),
		remove: func(int) error { removes++; return nil },
		detach: func([]byte) error { return nil },
	}

	assert.NoError(t, ch.Remove())
	assert.NoError(t, ch.Release())
	assert.Equal(t, 1, removes)
}
