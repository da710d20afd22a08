package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"onmydesk/config"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNoneIsIdentity(t *testing.T) {
	b, err := New(context.Background(), config.StorageConfig{Driver: "none"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	got, _ := b.Relocate(context.Background(), "/tmp/a.csv")
	if got != "/tmp/a.csv" {
		t.Errorf("Expected identity, got %s", got)
	}
	if link, _ := b.Link(context.Background(), got); link != NoLink {
		t.Errorf("Expected %s, got %s", NoLink, link)
	}
}

func TestUnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Error("Expected error for unknown driver, got nil")
	}
}

func TestFSRelocateAndLink(t *testing.T) {
	src := writeTemp(t, "0123abcd.csv", "a,b\n")
	root := filepath.Join(t.TempDir(), "results")
	fs := NewFS(root, "https://reports.example.com/files/")

	got, err := fs.Relocate(context.Background(), src)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if filepath.Dir(got) != root || filepath.Base(got) != "0123abcd.csv" {
		t.Errorf("Expected file moved under %s, got %s", root, got)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Expected source removed")
	}
	data, _ := os.ReadFile(got)
	if string(data) != "a,b\n" {
		t.Errorf("Expected content kept, got %q", data)
	}
	link, _ := fs.Link(context.Background(), got)
	if link != "https://reports.example.com/files/0123abcd.csv" {
		t.Errorf("Unexpected link %s", link)
	}
	if link, _ := NewFS(root, "").Link(context.Background(), got); link != NoLink {
		t.Errorf("Expected %s without base url, got %s", NoLink, link)
	}
}

func TestFSRelocateMissingFile(t *testing.T) {
	fs := NewFS(t.TempDir(), "")
	if _, err := fs.Relocate(context.Background(), "/nonexistent/file.csv"); err == nil {
		t.Error("Expected error, got nil")
	}
}

// s3Transport answers PutObject requests and records them.
type s3Transport struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (m *s3Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.Method == http.MethodPut {
		body, _ := io.ReadAll(req.Body)
		m.puts[req.URL.Path] = body
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func newTestS3(t *testing.T) (*S3, *s3Transport) {
	t.Helper()
	rt := &s3Transport{puts: map[string][]byte{}}
	s, err := newS3(context.Background(), config.S3Config{
		Bucket:            "reports",
		Endpoint:          "https://mock.s3.local",
		PathStyle:         true,
		Prefix:            "/daily/",
		AccessKeyID:       "AKIA",
		SecretAccessKey:   "SECRET",
		LinkExpiryMinutes: 5,
	}, &http.Client{Transport: rt})
	if err != nil {
		t.Fatalf("newS3 failed: %v", err)
	}
	return s, rt
}

func TestS3RelocateUploadsAndRemovesLocalFile(t *testing.T) {
	s, rt := newTestS3(t)
	src := writeTemp(t, "feedbeef.tsv", "Name\tAge\n")

	got, err := s.Relocate(context.Background(), src)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if got != "s3://reports/daily/feedbeef.tsv" {
		t.Errorf("Unexpected location %s", got)
	}
	body, ok := rt.puts["/reports/daily/feedbeef.tsv"]
	if !ok {
		t.Fatalf("Expected PUT on /reports/daily/feedbeef.tsv, got %v", rt.puts)
	}
	if !strings.Contains(string(body), "Name\tAge") {
		t.Errorf("Expected file content uploaded, got %q", body)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Expected local file removed")
	}
}

func TestS3Link(t *testing.T) {
	s, _ := newTestS3(t)
	link, err := s.Link(context.Background(), "s3://reports/daily/feedbeef.tsv")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if !strings.HasPrefix(link, "https://mock.s3.local/reports/daily/feedbeef.tsv?") ||
		!strings.Contains(link, "X-Amz-Signature=") || !strings.Contains(link, "X-Amz-Expires=300") {
		t.Errorf("Expected presigned URL, got %s", link)
	}
	if link, _ := s.Link(context.Background(), "/tmp/local.csv"); link != NoLink {
		t.Errorf("Expected %s for a local path, got %s", NoLink, link)
	}
}

func TestContentType(t *testing.T) {
	if contentType("a.xlsx") != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Error("Unexpected xlsx content type")
	}
	if contentType("a.bin") != "application/octet-stream" {
		t.Error("Unexpected default content type")
	}
}
