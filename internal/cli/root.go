// Package cli is the pdfsuite command line front end. Every command ingests
// its inputs into a registry, runs one toolkit operation while rendering the
// pipeline state, and hands the outputs to an exporter.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfsuite/internal/config"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
	"github.com/Lllllllleong/pdfsuite/internal/registry"
	"github.com/Lllllllleong/pdfsuite/internal/services"
)

// version is overridden at build time with -ldflags.
var version = "dev"

type globalFlags struct {
	config    string
	out       string
	zip       string
	gcsBucket string
	password  string
	logFormat string
	quiet     bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags    globalFlags
	config   config.Config
	pipeline *pipeline.Pipeline
	registry *registry.Registry
	toolkit  *services.Toolkit
}

// Execute runs the command line with args and returns the first error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pdfsuite",
		Short: "Merge, split, stamp and inspect PDF documents",
		Long: `pdfsuite runs page level operations on PDF files.

Inputs may be local paths or gs://bucket/object URIs. Results are written to
the output directory, bundled into a zip archive with --zip, or uploaded to a
Cloud Storage bucket with --gcs-bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", "", "path to a TOML config file")
	pf.StringVarP(&a.flags.out, "out", "o", "", "directory results are written to (default from config, else .)")
	pf.StringVar(&a.flags.zip, "zip", "", "bundle all results into this zip archive")
	pf.StringVar(&a.flags.gcsBucket, "gcs-bucket", "", "upload results to this Cloud Storage bucket")
	pf.StringVar(&a.flags.password, "password", "", "password for encrypted inputs")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "log format: json or text")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "only log warnings and hide the progress bar")

	root.AddCommand(
		newMergeCmd(a),
		newSplitCmd(a),
		newExtractCmd(a),
		newRotateCmd(a),
		newRemoveCmd(a),
		newOrganizeCmd(a),
		newWatermarkCmd(a),
		newAnnotateCmd(a),
		newNumberCmd(a),
		newCompressCmd(a),
		newRepairCmd(a),
		newInfoCmd(a),
		newTextCmd(a),
		newTableCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.config)
	if err != nil {
		return err
	}
	if a.flags.logFormat != "" {
		cfg.Log.Format = a.flags.logFormat
	}
	if a.flags.gcsBucket != "" {
		cfg.Storage.Bucket = a.flags.gcsBucket
	}
	if a.flags.out != "" {
		cfg.Export.Dir = a.flags.out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log, a.flags.quiet)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.config = cfg
	a.pipeline = pipeline.New()
	a.registry = registry.New(cfg.Registry(a.flags.password), a.pipeline)
	a.toolkit = services.NewToolkit(a.pipeline, cfg.Toolkit(a.flags.password))
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig, quiet bool) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}
	if quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// The root pre-run loads config and logging, neither of which is needed here.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("pdfsuite version %s\n", version)
		},
	}
}
