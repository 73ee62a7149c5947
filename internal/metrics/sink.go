package metrics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	mu sync.Mutex

	// out receives flushed documents; nil means stdout.
	out io.Writer

	// service is added as the Service dimension when set.
	service string
)

// SetOutput redirects flushed documents to w. A nil w restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Open selects the metrics destination: "stdout", "stderr", "off", or a file
// path that is appended to. The returned func closes the file, if any, and
// restores stdout.
func Open(dest string) (func() error, error) {
	switch strings.ToLower(dest) {
	case "", "stdout":
		SetOutput(os.Stdout)
		return func() error { return nil }, nil
	case "stderr":
		SetOutput(os.Stderr)
		return func() error { SetOutput(nil); return nil }, nil
	case "off", "none":
		SetOutput(io.Discard)
		return func() error { SetOutput(nil); return nil }, nil
	}

	f, err := os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	SetOutput(f)
	return func() error {
		SetOutput(nil)
		return f.Close()
	}, nil
}

func write(line []byte) {
	mu.Lock()
	defer mu.Unlock()
	w := out
	if w == nil {
		w = os.Stdout
	}
	if w == io.Discard {
		return
	}
	w.Write(append(line, '\n'))
}
