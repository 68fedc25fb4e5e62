package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

var errQuit = errors.New("quit requested")

const (
	keyCtrlC  = 0x03
	keyCtrlD  = 0x04
	keyEscape = 0x1b
)

// capture reads key presses from in one byte at a time and sends a
// retarget for every mapped key. It never touches the oscillator.
// The caller closes the control once it has recorded the returned error.
func capture(done <-chan struct{}, in io.Reader, mapping *atomic.Pointer[Mapping], c *Control, log *slog.Logger) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-done:
			return nil
		default:
		}
		n, err := in.Read(buf)
		if n == 1 {
			key := buf[0]
			switch key {
			case keyCtrlC, keyCtrlD, keyEscape:
				return errQuit
			}
			m := mapping.Load()
			msg, ok := m.Retarget(key)
			if !ok {
				log.Debug("unmapped key", "key", key)
			} else {
				log.Debug("key", "key", key, "note", m.Keymap.Note(key), "frequency", msg.Frequency)
				if err := c.Send(msg); err != nil {
					return err
				}
			}
		}
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("can't read input: %w", err)
		}
	}
}

// rawTerminal switches f to raw mode if it is a terminal. The returned
// function restores the previous state and is never nil.
func rawTerminal(f *os.File) (restore func(), raw bool, err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false, nil
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, false, fmt.Errorf("can't set raw mode: %w", err)
	}
	return func() {
		// ignore restore error, nothing left to do about it
		_ = term.Restore(fd, old)
	}, true, nil
}

// crlfWriter turns \n into \r\n; a raw terminal does not do it for us.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return c.w.Write(p)
	}
	_, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
