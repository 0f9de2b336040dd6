// Package cmd implements chrome-cli's command-line interface: global
// flags and logging setup, and the version/targets subcommands.
package cmd

import (
	"bytes"
	"io"
	"sync"
)

// consoleWriter synchronizes writes to stdout/stderr with a mutex and, on
// a TTY, clears to end-of-line on every newline so redrawn output doesn't
// leave stray trailing characters behind.
type consoleWriter struct {
	Writer io.Writer
	IsTTY  bool
	Mutex  *sync.Mutex
}

func (w *consoleWriter) Write(p []byte) (n int, err error) {
	origLen := len(p)
	if w.IsTTY {
		p = bytes.ReplaceAll(p, []byte{'\n'}, []byte{'\x1b', '[', '0', 'K', '\n'})
	}

	w.Mutex.Lock()
	n, err = w.Writer.Write(p)
	w.Mutex.Unlock()

	if err != nil && n < origLen {
		return n, err
	}
	return origLen, err
}
