package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pagerange"
)

func newMergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <file> <file>...",
		Short: "Concatenate documents in argument order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.ingest(cmd.Context(), args)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.Merge(ctx, files))
			})
		},
	}
}

func newSplitCmd(a *app) *cobra.Command {
	var ranges string
	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a document into ranges, or into single pages",
		Long: `Split writes one document per range given with --ranges, for example
"1-3,4-6,7-". Without --ranges every page becomes its own document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parsed []models.PageRange
			if ranges != "" {
				var err error
				if parsed, err = pagerange.Parse(ranges); err != nil {
					return err
				}
			}
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				if parsed == nil {
					return a.toolkit.SplitPages(ctx, file)
				}
				return a.toolkit.Split(ctx, file, parsed)
			})
		},
	}
	cmd.Flags().StringVar(&ranges, "ranges", "", "comma separated page ranges")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	var pages string
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Copy selected page ranges into new documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges, err := pagerange.Parse(pages)
			if err != nil {
				return err
			}
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return a.toolkit.Extract(ctx, file, ranges)
			})
		},
	}
	cmd.Flags().StringVar(&pages, "pages", "", "page ranges to extract, e.g. 2-4,9")
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}

func newRotateCmd(a *app) *cobra.Command {
	var degrees int
	cmd := &cobra.Command{
		Use:   "rotate <file>",
		Short: "Rotate every page clockwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.Rotate(ctx, file, degrees))
			})
		},
	}
	cmd.Flags().IntVar(&degrees, "degrees", 90, "rotation in degrees, a multiple of 90")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var pages string
	cmd := &cobra.Command{
		Use:   "remove <file>",
		Short: "Remove pages from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			selected, err := pagerange.ParsePages(pages, file.PageCount)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.RemovePages(ctx, file, selected))
			})
		},
	}
	cmd.Flags().StringVar(&pages, "pages", "", "pages to remove, e.g. 1,3-4")
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}

func newOrganizeCmd(a *app) *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "organize <file>",
		Short: "Reorder, duplicate, drop and rotate pages",
		Long: `Organize builds a new document from --order, a comma separated list of
original page numbers. A page may carry an extra rotation after a colon:
"3,1:90,1" puts page 3 first, then page 1 rotated by 90 degrees, then an
unrotated copy of page 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := parseOrder(order)
			if err != nil {
				return err
			}
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.Organize(ctx, file, entries))
			})
		},
	}
	cmd.Flags().StringVar(&order, "order", "", "new page order")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

func parseOrder(s string) ([]models.OrganizeEntry, error) {
	var entries []models.OrganizeEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		page, rot, hasRot := strings.Cut(part, ":")
		var e models.OrganizeEntry
		var err error
		if e.Page, err = strconv.Atoi(strings.TrimSpace(page)); err != nil {
			return nil, fmt.Errorf("%w: %q is not a page number", models.ErrInvalidRange, page)
		}
		if hasRot {
			if e.Rotation, err = strconv.Atoi(strings.TrimSpace(rot)); err != nil {
				return nil, fmt.Errorf("%w: %q", models.ErrInvalidRotation, rot)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func newWatermarkCmd(a *app) *cobra.Command {
	var (
		opts  models.WatermarkOptions
		pos   string
		color string
	)
	cmd := &cobra.Command{
		Use:   "watermark <file>",
		Short: "Stamp text on every page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Position = models.Position(pos)
			if color != "" {
				c, err := parseColor(color)
				if err != nil {
					return err
				}
				opts.Color = c
			}
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.Watermark(ctx, file, opts))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Text, "text", "", "watermark text (default from config)")
	f.StringVar(&pos, "position", "", "center, diagonal, top-left, top-center, top-right, bottom-left, bottom-center or bottom-right")
	f.StringVar(&opts.Font, "font", "", "standard font name, e.g. Helvetica-Bold")
	f.Float64Var(&opts.FontSize, "size", 0, "font size in points")
	f.Float64Var(&opts.Opacity, "opacity", 0, "opacity between 0 and 1")
	f.Float64Var(&opts.Angle, "angle", 0, "rotation in degrees for the diagonal position")
	f.StringVar(&color, "color", "", "text colour as #rrggbb")
	return cmd
}

func newAnnotateCmd(a *app) *cobra.Command {
	var (
		notes []string
		size  float64
		color string
	)
	cmd := &cobra.Command{
		Use:   "annotate <file>",
		Short: "Draw text at absolute positions",
		Long: `Each --note is "page,x,y,text", with x and y in points from the lower left
corner of the page. The flag may be repeated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := models.Black
			if color != "" {
				var err error
				if c, err = parseColor(color); err != nil {
					return err
				}
			}
			annotations, err := parseNotes(notes, size, c)
			if err != nil {
				return err
			}
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.Annotate(ctx, file, annotations))
			})
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&notes, "note", nil, "annotation as page,x,y,text")
	f.Float64Var(&size, "size", 12, "font size in points")
	f.StringVar(&color, "color", "", "text colour as #rrggbb")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}

func parseNotes(notes []string, size float64, color models.Color) ([]models.Annotation, error) {
	annotations := make([]models.Annotation, 0, len(notes))
	for _, n := range notes {
		parts := strings.SplitN(n, ",", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("note %q must be page,x,y,text", n)
		}
		page, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("note %q: bad page: %w", n, err)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("note %q: bad x: %w", n, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("note %q: bad y: %w", n, err)
		}
		annotations = append(annotations, models.Annotation{
			Page:     page,
			X:        x,
			Y:        y,
			Text:     parts[3],
			FontSize: size,
			Color:    color,
		})
	}
	return annotations, nil
}

// parseColor reads #rrggbb.
func parseColor(s string) (models.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return models.Color{}, fmt.Errorf("colour %q must be #rrggbb", s)
	}
	return models.Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

func newNumberCmd(a *app) *cobra.Command {
	var (
		opts   models.PageNumberOptions
		pos    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "number <file>",
		Short: "Add page numbers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Position = models.Position(pos)
			opts.Format = models.NumberFormat(format)
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.NumberPages(ctx, file, opts))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&pos, "position", "", "top-left, top-center, top-right, bottom-left, bottom-center or bottom-right")
	f.StringVar(&format, "format", "", "n, page-n-of-total or dashed")
	f.IntVar(&opts.StartNumber, "start", 0, "number printed on the first page")
	f.StringVar(&opts.Font, "font", "", "standard font name")
	f.Float64Var(&opts.FontSize, "size", 0, "font size in points")
	return cmd
}

func newCompressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compress <file>",
		Short: "Rewrite a document with optimized structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.Compress(ctx, file))
			})
		},
	}
}

func newRepairCmd(a *app) *cobra.Command {
	var expect int
	cmd := &cobra.Command{
		Use:   "repair <file>",
		Short: "Rebuild a damaged document page by page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.Repair(ctx, file, expect))
			})
		},
	}
	cmd.Flags().IntVar(&expect, "expect", 0, "page count the document should have")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show page count, metadata and page boxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			info, err := a.toolkit.Inspect(file)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprintf(w, "File:      %s\n", info.Name)
			fmt.Fprintf(w, "Pages:     %d\n", info.PageCount)
			fmt.Fprintf(w, "Version:   %s\n", info.Version)
			fmt.Fprintf(w, "Encrypted: %t\n", info.Encrypted)
			for _, kv := range [][2]string{
				{"Title", info.Title}, {"Author", info.Author}, {"Subject", info.Subject},
				{"Creator", info.Creator}, {"Producer", info.Producer},
			} {
				if kv[1] != "" {
					fmt.Fprintf(w, "%-10s %s\n", kv[0]+":", kv[1])
				}
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\nPAGE\tWIDTH\tHEIGHT\tROTATION")
			for _, p := range info.Pages {
				fmt.Fprintf(tw, "%d\t%.1f\t%.1f\t%d\n", p.Number, p.Width, p.Height, p.Rotation)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "text <file>",
		Short: "Extract text in reading order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.ExtractText(ctx, file))
			})
		},
	}
}

func newTableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "table <file>",
		Short: "Extract text rows as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.ingestOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) ([]models.Output, error) {
				return single(a.toolkit.ExtractTable(ctx, file))
			})
		},
	}
}
