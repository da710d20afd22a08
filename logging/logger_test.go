package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteAddsDatedLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }

	l.Writef("[START] id=%d", 3)

	if got := buf.String(); got != "2024-03-04 05:06:07 [START] id=3\n" {
		t.Errorf("Expected dated line, got %q", got)
	}
}

func TestNewLoggerAppendsToFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir, "report.log")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	l.Write("first")
	l.Close()

	l, err = NewLogger(dir, "report.log")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	l.Write("second")
	l.Close()

	data, err := os.ReadFile(filepath.Join(dir, "report.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "first") || !strings.HasSuffix(lines[1], "second") {
		t.Errorf("Expected two appended lines, got %q", lines)
	}
}

func TestTeeWritesBoth(t *testing.T) {
	var a, b bytes.Buffer
	l := New(&a).Tee(&b)
	l.Write("hello")
	if a.String() != b.String() || !strings.HasSuffix(a.String(), "hello\n") {
		t.Errorf("Expected same line on both writers, got %q and %q", a.String(), b.String())
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Write("ignored")
	l.Close()
}
