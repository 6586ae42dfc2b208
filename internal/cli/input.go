package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/pdfsuite/internal/gcp"
	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// readInputs loads every argument as a blob. gs:// URIs are downloaded with a
// single storage client shared by all of them.
func readInputs(ctx context.Context, args []string) ([]models.Blob, error) {
	var client *storage.Client
	defer func() {
		if client != nil {
			client.Close()
		}
	}()

	blobs := make([]models.Blob, 0, len(args))
	for _, arg := range args {
		var (
			name string
			data []byte
			err  error
		)
		if bucket, object, ok := gcp.ParseURI(arg); ok {
			if client == nil {
				if client, err = storage.NewClient(ctx); err != nil {
					return nil, fmt.Errorf("failed to create GCS client: %w", err)
				}
			}
			name = path.Base(object)
			data, err = gcp.ReadObject(ctx, client, bucket, object)
		} else {
			name = filepath.Base(arg)
			data, err = os.ReadFile(arg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input %s: %w", arg, err)
		}
		blobs = append(blobs, models.Blob{Name: name, MediaType: http.DetectContentType(data), Data: data})
	}
	return blobs, nil
}

// ingest registers args and returns the accepted files in argument order.
// Rejected inputs are fatal on the command line.
func (a *app) ingest(ctx context.Context, args []string) ([]models.UploadedFile, error) {
	blobs, err := readInputs(ctx, args)
	if err != nil {
		return nil, err
	}
	result, err := a.registry.AddFiles(ctx, blobs)
	if err != nil {
		return nil, err
	}
	if len(result.Rejected) > 0 {
		reasons := make([]string, len(result.Rejected))
		for i, r := range result.Rejected {
			reasons[i] = r.Name + ": " + r.Reason
		}
		return nil, fmt.Errorf("rejected input: %s", strings.Join(reasons, "; "))
	}
	for _, f := range result.Added {
		if f.Unreadable {
			slog.Warn("Input could not be probed; the operation will likely fail.", "file", f.Name, "error", f.ProbeError)
		}
	}
	return a.registry.Files(), nil
}

// ingestOne is ingest for commands that take exactly one document.
func (a *app) ingestOne(ctx context.Context, arg string) (models.UploadedFile, error) {
	files, err := a.ingest(ctx, []string{arg})
	if err != nil {
		return models.UploadedFile{}, err
	}
	return files[0], nil
}
