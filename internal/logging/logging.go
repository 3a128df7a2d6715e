// Package logging provides named, leveled loggers on top of the standard
// log package. All loggers share one output that always includes stderr and
// can be teed into per-run log files.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TimeLayout is the timestamp layout of every log line.
const TimeLayout = "2006-01-02 15:04:05.000"

type sink struct {
	mu      sync.Mutex
	console io.Writer
	files   []io.Writer
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.console.Write(p)
	for _, f := range s.files {
		// a broken log file must not take the run down with it
		_, _ = f.Write(p)
	}
	return n, err
}

var (
	out = &sink{console: os.Stderr}
	std = log.New(out, "", 0)
	now = time.Now
)

// SetConsole replaces stderr as the console output. Used by tests.
func SetConsole(w io.Writer) {
	out.mu.Lock()
	out.console = w
	out.mu.Unlock()
}

type fileCloser struct {
	f *os.File
}

func (c fileCloser) Close() error {
	out.mu.Lock()
	for i, w := range out.files {
		if w == io.Writer(c.f) {
			out.files = append(out.files[:i], out.files[i+1:]...)
			break
		}
	}
	out.mu.Unlock()
	return c.f.Close()
}

// AddFile appends every subsequent log line to path as well. Closing the
// returned io.Closer detaches and closes the file.
func AddFile(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	out.mu.Lock()
	out.files = append(out.files, f)
	out.mu.Unlock()
	return fileCloser{f: f}, nil
}

// Logger writes lines tagged with a component name.
type Logger struct {
	name string
}

// New returns a logger for the named component.
func New(name string) *Logger {
	return &Logger{name: name}
}

func (l *Logger) output(level, msg string) {
	std.Printf("%s %s %s - %s", now().Format(TimeLayout), l.name, level, msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.output("INFO", fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.output("WARN", fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.output("ERROR", fmt.Sprintf(format, args...))
}

// Printf logs at INFO so a Logger can stand in wherever a printf is expected.
func (l *Logger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}
