package main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/google/vectorio"
)

// maxBatchLines stays under Linux IOV_MAX so one flush is a single writev call
const maxBatchLines = 1024

// lineWriter batches drained log lines. Files (including stdout) are written
// with one writev per batch; any other writer gets sequential writes.
type lineWriter struct {
	w       io.Writer
	file    *os.File
	pending [][]byte
	lines   int
}

func newLineWriter(w io.Writer) *lineWriter {
	lw := &lineWriter{w: w}
	if f, ok := w.(*os.File); ok {
		lw.file = f
	}
	return lw
}

func (lw *lineWriter) Add(line string) error {
	lw.pending = append(lw.pending, []byte(line+"\n"))
	if len(lw.pending) >= maxBatchLines {
		return lw.Flush()
	}
	return nil
}

func (lw *lineWriter) Flush() error {
	if len(lw.pending) == 0 {
		return nil
	}
	count := len(lw.pending)

	var err error
	if lw.file != nil {
		err = lw.writev(lw.pending)
	} else {
		for _, b := range lw.pending {
			if _, err = lw.w.Write(b); err != nil {
				break
			}
		}
	}

	for i := range lw.pending {
		lw.pending[i] = nil
	}
	lw.pending = lw.pending[:0]
	if err != nil {
		return fmt.Errorf("failed to write log lines: %w", err)
	}
	lw.lines += count
	return nil
}

// writev loops until every byte is written, resuming mid-buffer after short writes
func (lw *lineWriter) writev(bufs [][]byte) error {
	remaining := make([][]byte, len(bufs))
	copy(remaining, bufs)
	iovecs := make([]syscall.Iovec, 0, len(bufs))

	for len(remaining) > 0 {
		iovecs = iovecs[:0]
		for _, b := range remaining {
			iov := syscall.Iovec{Base: &b[0]}
			iov.SetLen(len(b))
			iovecs = append(iovecs, iov)
		}

		nw, err := vectorio.WritevRaw(lw.file.Fd(), iovecs)
		if err != nil {
			return err
		}
		if nw == 0 {
			return io.ErrShortWrite
		}

		for nw > 0 && len(remaining) > 0 {
			if nw >= len(remaining[0]) {
				nw -= len(remaining[0])
				remaining = remaining[1:]
				continue
			}
			remaining[0] = remaining[0][nw:]
			nw = 0
		}
	}
	return nil
}

// Lines returns how many lines have been written so far
func (lw *lineWriter) Lines() int {
	return lw.lines
}
