package cli

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfsuite/internal/export"
	"github.com/Lllllllleong/pdfsuite/internal/gcp"
	"github.com/Lllllllleong/pdfsuite/internal/models"
)

type operation func(ctx context.Context) ([]models.Output, error)

func single(out models.Output, err error) ([]models.Output, error) {
	if err != nil {
		return nil, err
	}
	return []models.Output{out}, nil
}

// run executes op with the progress view attached, then exports its outputs
// and prints where they went.
func (a *app) run(cmd *cobra.Command, op operation) error {
	ctx := cmd.Context()
	view := newProgressView(cmd.ErrOrStderr(), a.flags.quiet)
	unsubscribe := a.pipeline.Subscribe(view.observe)
	outputs, err := op(ctx)
	unsubscribe()
	view.finish()
	if err != nil {
		return err
	}

	exporter, closeExporter, err := a.exporter(ctx)
	if err != nil {
		return err
	}
	defer closeExporter()

	locations, err := exporter.Export(ctx, outputs)
	if err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}
	printSummary(cmd.OutOrStdout(), outputs, locations)
	return nil
}

// exporter picks the destination: a zip archive, a bucket, or the output
// directory, in that order of precedence.
func (a *app) exporter(ctx context.Context) (export.Exporter, func(), error) {
	noop := func() {}
	switch {
	case a.flags.zip != "":
		return export.ZipExporter{Path: a.flags.zip}, noop, nil
	case a.config.Storage.Bucket != "":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create GCS client: %w", err)
		}
		return gcp.NewBucketExporter(client, a.config.Bucket()), func() { client.Close() }, nil
	default:
		return export.DirExporter{Dir: a.config.Export.Dir}, noop, nil
	}
}

func printSummary(w io.Writer, outputs []models.Output, locations []string) {
	tty := isTerminal(w)
	mark := "OK"
	if tty {
		mark = successStyle.Render("✓")
	}
	if len(locations) == 1 && len(outputs) > 1 {
		fmt.Fprintf(w, "%s %d results bundled into %s\n", mark, len(outputs), locations[0])
		return
	}
	for i, o := range outputs {
		fmt.Fprintf(w, "%s %s (%s)\n", mark, locations[i], humanize.Bytes(uint64(o.Size())))
		for _, n := range o.Notes {
			if tty {
				n = noteStyle.Render(n)
			}
			fmt.Fprintf(w, "    %s\n", n)
		}
	}
}
