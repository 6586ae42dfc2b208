// Package export writes operation outputs to their destination.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// Exporter stores outputs and returns where each one went, in output order.
type Exporter interface {
	Export(ctx context.Context, outputs []models.Output) ([]string, error)
}

// DirExporter writes each output as a file in Dir. Existing files are never
// overwritten; a numeric suffix is added instead.
type DirExporter struct {
	Dir string
}

func (e DirExporter) Export(ctx context.Context, outputs []models.Output) ([]string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", e.Dir, err)
	}
	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := writeNew(e.Dir, o.Name, o.Data)
		if err != nil {
			return paths, err
		}
		slog.Info("Output written.", "path", path, "size", o.Size())
		paths = append(paths, path)
	}
	return paths, nil
}

// writeNew writes data to a temp file in dir and links it under the first
// free variant of name.
func writeNew(dir, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, ".pdfsuite-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", name, err)
	}

	base := safeName(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 0; ; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		err := os.Link(tmp.Name(), path)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to save %s: %w", path, err)
		}
	}
}

func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "output"
	}
	return name
}

// ZipExporter bundles all outputs into a single archive at Path.
type ZipExporter struct {
	Path string
}

func (e ZipExporter) Export(ctx context.Context, outputs []models.Output) ([]string, error) {
	data, err := Bundle(ctx, outputs)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(e.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	if err := os.WriteFile(e.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write archive %s: %w", e.Path, err)
	}
	slog.Info("Archive written.", "path", e.Path, "entries", len(outputs), "size", len(data))
	return []string{e.Path}, nil
}

// Bundle returns a zip archive holding outputs in order. Duplicate names get a
// numeric suffix.
func Bundle(ctx context.Context, outputs []models.Output) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := make(map[string]bool, len(outputs))
	now := time.Now()

	for _, o := range outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := safeName(o.Name)
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for i := 1; used[name]; i++ {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		used[name] = true

		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := w.Write(o.Data); err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
