// Package registry holds the ordered set of files a session works on.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
)

const defaultProbeConcurrency = 4

// Config controls ingestion.
type Config struct {
	ProbeConcurrency int
	Password         string
}

// Rejection records a blob that was not accepted.
type Rejection struct {
	Name   string
	Reason string
}

// AddResult reports the outcome of AddFiles.
type AddResult struct {
	Added    []models.UploadedFile
	Rejected []Rejection
}

// Registry is the ordered sequence of uploaded files. It is safe for
// concurrent use.
type Registry struct {
	config   Config
	pipeline *pipeline.Pipeline

	mu    sync.RWMutex
	files []models.UploadedFile
}

// New returns an empty registry. Clear resets p when it is not nil.
func New(config Config, p *pipeline.Pipeline) *Registry {
	if config.ProbeConcurrency <= 0 {
		config.ProbeConcurrency = defaultProbeConcurrency
	}
	return &Registry{config: config, pipeline: p}
}

// AddFiles ingests blobs. Non-PDF blobs are rejected; the page count of each
// accepted blob is probed concurrently, but the new entries are appended in
// input order after the existing ones. A blob that fails to parse is still
// registered, with PageCount 0 and Unreadable set.
func (r *Registry) AddFiles(ctx context.Context, blobs []models.Blob) (AddResult, error) {
	var (
		result   AddResult
		accepted []models.Blob
	)
	for _, b := range blobs {
		if !isPDF(b) {
			reason := fmt.Sprintf("not a PDF (media type %q)", b.MediaType)
			slog.Warn("Rejected file.", "file", b.Name, "reason", reason)
			result.Rejected = append(result.Rejected, Rejection{Name: b.Name, Reason: reason})
			continue
		}
		accepted = append(accepted, b)
	}

	added := make([]models.UploadedFile, len(accepted))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.config.ProbeConcurrency)
	for i, b := range accepted {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			added[i] = r.probe(b)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return result, fmt.Errorf("failed to ingest files: %w", err)
	}

	r.mu.Lock()
	known := make(map[string]string, len(r.files))
	for _, f := range r.files {
		known[f.Checksum] = f.Name
	}
	for _, f := range added {
		if prev, ok := known[f.Checksum]; ok {
			slog.Warn("Duplicate file added.", "file", f.Name, "duplicateOf", prev, "checksum", f.Checksum)
		}
		known[f.Checksum] = f.Name
	}
	r.files = append(r.files, added...)
	r.mu.Unlock()

	result.Added = added
	return result, nil
}

func (r *Registry) probe(b models.Blob) models.UploadedFile {
	sum := sha256.Sum256(b.Data)
	f := models.NewUploadedFile(uuid.NewString(), b.Name, b.Data)
	f.Checksum = hex.EncodeToString(sum[:])

	logCtx := slog.With("file", b.Name, "id", f.ID)
	doc, err := pdfdoc.Load(b.Data, pdfdoc.Options{Password: r.config.Password})
	if err != nil {
		logCtx.Warn("Could not read page count.", "error", err)
		f.Unreadable = true
		f.ProbeError = err.Error()
		return f
	}
	f.PageCount = doc.PageCount()
	logCtx.Info("File registered.", "pageCount", f.PageCount, "size", f.Size)
	return f
}

func isPDF(b models.Blob) bool {
	mt := strings.ToLower(strings.TrimSpace(b.MediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == models.MediaTypePDF {
		return true
	}
	return strings.EqualFold(filepath.Ext(b.Name), ".pdf")
}

// Remove drops the file with the given id. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = slices.DeleteFunc(r.files, func(f models.UploadedFile) bool {
		return f.ID == id
	})
}

// Reorder replaces the sequence with files, typically a permutation of Files().
func (r *Registry) Reorder(files []models.UploadedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = slices.Clone(files)
}

// Clear removes every file and returns the pipeline to Idle. While an
// operation is running it fails with ErrBusy and leaves the files in place.
func (r *Registry) Clear() error {
	if r.pipeline != nil {
		if err := r.pipeline.Reset(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.files = nil
	r.mu.Unlock()
	return nil
}

// Files returns a snapshot of the sequence.
func (r *Registry) Files() []models.UploadedFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.files)
}

// Get returns the file with the given id.
func (r *Registry) Get(id string) (models.UploadedFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.files {
		if f.ID == id {
			return f, true
		}
	}
	return models.UploadedFile{}, false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}
