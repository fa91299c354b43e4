package seqlog

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's id from its stack header,
// which always starts "goroutine N [state]:". Returns 0 when the header
// cannot be parsed.
func goroutineID() uint64 {
	var buf [64]byte
	size := runtime.Stack(buf[:], false)

	fields := bytes.Fields(buf[:size])
	if len(fields) < 2 {
		return 0
	}

	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
