package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FS moves files under Root. Links are BaseURL + file name.
type FS struct {
	Root    string
	BaseURL string
}

func NewFS(root, baseURL string) *FS {
	if root == "" {
		root = "results"
	}
	return &FS{Root: root, BaseURL: baseURL}
}

func (f *FS) Relocate(ctx context.Context, path string) (string, error) {
	if err := os.MkdirAll(f.Root, 0755); err != nil {
		return "", err
	}
	dst, err := filepath.Abs(filepath.Join(f.Root, filepath.Base(path)))
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, dst); err != nil {
		// temp dir on another device
		if err := copyFile(path, dst); err != nil {
			return "", err
		}
		if err := os.Remove(path); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
		if err != nil {
			os.Remove(dst)
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

func (f *FS) Link(ctx context.Context, result string) (string, error) {
	if f.BaseURL == "" || result == "" {
		return NoLink, nil
	}
	return strings.TrimSuffix(f.BaseURL, "/") + "/" + filepath.Base(result), nil
}
