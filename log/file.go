package log

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// fileHook is a logrus.Hook that serializes matching entries onto a
// channel drained by a background goroutine writing to a buffered file.
type fileHook struct {
	path     string
	levels   []logrus.Level
	loglines chan []byte
	w        io.WriteCloser
	bw       *bufio.Writer
	fallback logrus.FieldLogger
}

func (h *fileHook) Levels() []logrus.Level {
	return h.levels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	h.loglines <- []byte(line)
	return nil
}

// loop starts the writer goroutine and returns the channel Fire should
// send serialized lines to. The goroutine flushes and closes the
// underlying writer once ctx is done.
func (h *fileHook) loop(ctx context.Context) chan []byte {
	lines := make(chan []byte, 100)
	go func() {
		defer func() {
			_ = h.bw.Flush()
			_ = h.w.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case line := <-lines:
						_, _ = h.bw.Write(line)
					default:
						return
					}
				}
			case line := <-lines:
				_, _ = h.bw.Write(line)
				_ = h.bw.Flush()
			}
		}
	}()
	return lines
}

// FileHookFromConfigLine builds a logrus.Hook from a log-output config
// line of the form "file=/path/to/file,level=info".
func FileHookFromConfigLine(ctx context.Context, fallback logrus.FieldLogger, line string) (logrus.Hook, error) {
	firstPart, rest, hasRest := strings.Cut(line, ",")
	if !strings.HasPrefix(firstPart, "file=") {
		return nil, fmt.Errorf("logfile configuration should be in the form `file=path-to-local-file` but is `%s`", line)
	}

	path := strings.TrimPrefix(firstPart, "file=")
	if path == "" {
		return nil, errors.New("filepath must not be empty")
	}
	if strings.HasSuffix(path, "/") {
		return nil, fmt.Errorf("filepath `%s` must not be a directory", path)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("filepath `%s` must not be a directory", path)
	}

	levels := logrus.AllLevels
	if hasRest && rest != "" {
		tokens, err := tokenize(rest)
		if err != nil {
			return nil, err
		}
		for _, tok := range tokens {
			switch tok.key {
			case "level":
				levels, err = parseLevels(tok.value)
				if err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("unknown logfile config key %s", tok.key)
			}
		}
	}

	w, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	hook := &fileHook{
		path:     path,
		levels:   levels,
		w:        w,
		bw:       bufio.NewWriter(w),
		fallback: fallback,
	}
	hook.loglines = hook.loop(ctx)
	return hook, nil
}
