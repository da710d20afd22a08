// Package storage moves produced report files to their final location and
// builds download links for them.
package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"onmydesk/config"
)

// NoLink is returned when no download location is configured.
const NoLink = "#"

// Relocator rewrites a produced file path, moving or uploading the file.
type Relocator interface {
	Relocate(ctx context.Context, path string) (string, error)
}

// Linker turns a stored result into a user-facing URL.
type Linker interface {
	Link(ctx context.Context, result string) (string, error)
}

// Backend is a storage driver, both relocating and linking.
type Backend interface {
	Relocator
	Linker
}

// New returns the backend for cfg.Driver: none, fs or s3.
func New(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "none":
		return None{}, nil
	case "fs":
		return NewFS(cfg.FSRoot, cfg.BaseURL), nil
	case "s3":
		return NewS3(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
}

// None keeps files where the writers put them.
type None struct{}

func (None) Relocate(ctx context.Context, path string) (string, error) { return path, nil }
func (None) Link(ctx context.Context, result string) (string, error)   { return NoLink, nil }

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".csv":
		return "text/csv"
	case ".tsv":
		return "text/tab-separated-values"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}
