/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: handshake.go
Description: Fork-server handshake framing. One 4-byte "go" frame is written to
the control pipe, then exactly three 4-byte frames are read back in order:
hello, child PID, and the child's wait status. Frames use the host byte order.
*/

package execution

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kleascm/showmap/pkg/interfaces"
)

// Frames are the values the fork server sends back during one run
type Frames struct {
	Hello  uint32
	PID    int32
	Status uint32
}

// Handshake wakes the fork server and collects its replies. A short write
// fails before anything is read; a short read or a non-positive PID fails
// without returning frames.
func Handshake(ctl io.Writer, st io.Reader) (Frames, error) {
	var buf [interfaces.FrameSize]byte
	n, err := ctl.Write(buf[:])
	if err != nil || n != interfaces.FrameSize {
		return Frames{}, fmt.Errorf("%w: control write returned %d bytes (%v)", interfaces.ErrProtocol, n, err)
	}

	// The hello value is opaque; any 4 bytes are accepted.
	hello, err := readFrame(st, "hello")
	if err != nil {
		return Frames{}, err
	}
	pid, err := readFrame(st, "pid")
	if err != nil {
		return Frames{}, err
	}
	if int32(pid) <= 0 {
		return Frames{}, fmt.Errorf("%w: fork server reported pid %d", interfaces.ErrProtocol, int32(pid))
	}
	status, err := readFrame(st, "status")
	if err != nil {
		return Frames{}, err
	}

	return Frames{Hello: hello, PID: int32(pid), Status: status}, nil
}

// readFrame performs a single read and requires a whole frame from it.
// Writes of this size to a pipe are atomic, so a partial frame means the
// other side went away.
func readFrame(r io.Reader, name string) (uint32, error) {
	var buf [interfaces.FrameSize]byte
	n, err := r.Read(buf[:])
	if n != interfaces.FrameSize {
		return 0, fmt.Errorf("%w: %s frame read returned %d bytes (%v)", interfaces.ErrProtocol, name, n, err)
	}
	return binary.NativeEndian.Uint32(buf[:]), nil
}
