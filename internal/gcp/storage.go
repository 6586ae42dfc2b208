package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ParseURI splits gs://bucket/object. ok is false for anything else.
func ParseURI(uri string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(uri, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// ReadObject downloads gs://bucket/object into memory.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string) ([]byte, error) {
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	return writeOnce(writer, objectName, content)
}

// writeOnce copies content into w and finalizes it. A failed precondition
// means the object already exists, which is not an error.
func writeOnce(w io.WriteCloser, objectName string, content []byte) error {
	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		_ = w.Close()
		if alreadyExists(err) {
			slog.Info("Object already exists; skipping.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		if alreadyExists(err) {
			slog.Info("Object already exists; skipping.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func alreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// BucketConfig controls uploads made by a BucketExporter.
type BucketConfig struct {
	Bucket         string
	Prefix         string
	Concurrency    int
	MaxRetries     int
	InitialBackoff time.Duration
	WriteTimeout   time.Duration
}

// saveFunc stores one object. SaveToGCSAtomically is the production one.
type saveFunc func(ctx context.Context, object string, content []byte) error

// BucketExporter uploads outputs to Cloud Storage concurrently. Objects are
// created only if they do not exist yet, so re-running an export is harmless.
type BucketExporter struct {
	config BucketConfig
	save   saveFunc
}

// NewBucketExporter creates an exporter that writes through client.
func NewBucketExporter(client *storage.Client, config BucketConfig) *BucketExporter {
	bucket := client.Bucket(config.Bucket)
	return newBucketExporter(config, func(ctx context.Context, object string, content []byte) error {
		return SaveToGCSAtomically(ctx, bucket, object, content)
	})
}

func newBucketExporter(config BucketConfig, save saveFunc) *BucketExporter {
	if config.Concurrency <= 0 {
		config.Concurrency = 10
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 4
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 50 * time.Second
	}
	return &BucketExporter{config: config, save: save}
}

// Export uploads every output and returns gs:// URIs in output order.
func (e *BucketExporter) Export(ctx context.Context, outputs []models.Output) ([]string, error) {
	logCtx := slog.With("gcsBucket", e.config.Bucket, "outputs", len(outputs))
	logCtx.Info("Starting concurrent upload of outputs.")

	uris := make([]string, len(outputs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.config.Concurrency)
	for i, o := range outputs {
		object := path.Join(e.config.Prefix, o.Name)
		uris[i] = fmt.Sprintf("gs://%s/%s", e.config.Bucket, object)
		eg.Go(func() error {
			if err := e.upload(gctx, object, o.Data); err != nil {
				return fmt.Errorf("%s: %w", o.Name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("One or more outputs failed to upload.", "error", err)
		return nil, err
	}
	logCtx.Info("All outputs uploaded successfully.")
	return uris, nil
}

func (e *BucketExporter) upload(ctx context.Context, object string, data []byte) error {
	backoff := e.config.InitialBackoff
	var lastErr error

	for i := 0; i < e.config.MaxRetries; i++ {
		err := func() error {
			writeCtx, cancel := context.WithTimeout(ctx, e.config.WriteTimeout)
			defer cancel()
			return e.save(writeCtx, object, data)
		}()
		if err == nil {
			return nil
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", object,
			"attempt", i+1,
			"maxRetries", e.config.MaxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", object, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", object, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", object, lastErr)
}
