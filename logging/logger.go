package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger structure simple (thread-safe pour notre usage)
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	c   io.Closer
	now func() time.Time
}

// New wraps an arbitrary writer (stdout, a buffer in tests...)
func New(w io.Writer) *Logger {
	return &Logger{out: w, now: time.Now}
}

// NewLogger crée (et ouvre en append) un logger fichier
func NewLogger(dir, fname string) (*Logger, error) {
	if dir == "" {
		dir = "./log"
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, fname), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Logger{out: f, c: f, now: time.Now}, nil
}

// NewLoggerOrDie (pour main.go, pour moins de boilerplate)
func NewLoggerOrDie(dir, fname string) *Logger {
	l, err := NewLogger(dir, fname)
	if err != nil {
		panic(err)
	}
	return l
}

// Tee returns a logger writing to both l and w. Closing it closes l's file.
func (l *Logger) Tee(w io.Writer) *Logger {
	return &Logger{out: io.MultiWriter(l.out, w), c: l.c, now: l.now}
}

// Prefix is the timestamp put in front of every line.
func (l *Logger) Prefix() string {
	return l.now().Format("2006-01-02 15:04:05")
}

// Write ajoute une ligne datée au log
func (l *Logger) Write(msg string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s\n", l.Prefix(), msg)
}

func (l *Logger) Writef(format string, args ...interface{}) {
	l.Write(fmt.Sprintf(format, args...))
}

// Close ferme le fichier log proprement
func (l *Logger) Close() {
	if l == nil || l.c == nil {
		return
	}
	l.c.Close()
}
