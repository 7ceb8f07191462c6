package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"media-bridge/internal/filesystem"
	"media-bridge/internal/indexer"
	"media-bridge/internal/library"
	"media-bridge/internal/logging"
	"media-bridge/internal/media"
	"media-bridge/internal/transcoder"
	"media-bridge/internal/workers"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errTerminalOutput is returned instead of writing image bytes to a terminal.
var errTerminalOutput = errors.New("refusing to write binary data to a terminal; use --output")

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		if isTerminal(w) {
			return errTerminalOutput
		}
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Debug("Wrote %d bytes to %s", len(data), path)
	return nil
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var indexWorkers int

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the media directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				idx := indexer.New(a.db, opts.mediaDir, 0, workers.ForIndexing(indexWorkers))
				defer idx.Stop()

				if err := idx.Index(ctx); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a.db.GetStats())
			})
		},
	}

	cmd.Flags().IntVar(&indexWorkers, "workers", 0, "Metadata extraction workers (0 = auto)")
	return cmd
}

func newAuthCmd(opts *rootOptions) *cobra.Command {
	var request bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Show or request media library authorization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				status, err := a.service.Authorization(ctx)
				if request {
					status, err = a.service.RequestAuthorization(ctx)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), status)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&request, "request", false, "Request access instead of only reporting it")
	return cmd
}

func newCollectionsCmd(opts *rootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				collections, err := a.service.Collections(ctx, mode)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), collections)
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Collection mode: ROLL, SMART, ALBUMS or MOMENTS (default ROLL)")
	return cmd
}

// newListCmd builds the photos and videos commands.
func newListCmd(opts *rootOptions, use, short string) *cobra.Command {
	var (
		collectionIDs []string
		offset, limit int
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				list := a.service.Photos
				if use == "videos" {
					list = a.service.Videos
				}

				records, err := list(ctx, library.ListOptions{
					CollectionIDs: collectionIDs,
					Window:        library.ParseWindow(offset, limit),
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), records)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&collectionIDs, "collection", "c", nil, "Collection ID to list (repeatable)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of matching assets to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of assets (0 = all)")
	return cmd
}

func newThumbnailCmd(opts *rootOptions) *cobra.Command {
	var (
		thumb  media.ThumbnailOptions
		output string
	)

	cmd := &cobra.Command{
		Use:   "thumbnail <id>",
		Short: "Render a thumbnail as JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				data, err := a.service.Thumbnail(ctx, args[0], thumb.WithDefaults())
				if err != nil {
					return err
				}
				if thumb.AsDataURL && output == "" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, data)
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&thumb.Size, "size", media.DefaultThumbnailSize, "Edge length in pixels")
	flags.IntVar(&thumb.Quality, "quality", media.DefaultThumbnailQuality, "JPEG quality (1-100)")
	flags.BoolVar(&thumb.AsDataURL, "data-url", false, "Print a data URL instead of JPEG bytes")
	flags.StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newImageCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "image <id>",
		Short: "Render a full resolution image as JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				data, err := a.service.Image(ctx, args[0])
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, data)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a video without re-encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				job, err := a.service.ExportVideo(ctx, args[0])
				if err != nil {
					return err
				}

				ev, err := waitForExport(job.Events(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer func() {
					if err := a.service.ReleaseExport(ev.Token); err != nil {
						logging.Warn("Failed to release export: %v", err)
					}
				}()

				dest := output
				if dest == "" {
					dest = filepath.Base(ev.Location)
				}
				if err := copyFile(ev.Location, dest); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), dest)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default: export name in the current directory)")
	return cmd
}

// waitForExport reports progress to w and returns the completed event.
func waitForExport(events <-chan transcoder.Event, w io.Writer) (transcoder.Event, error) {
	for ev := range events {
		if !ev.Done {
			fmt.Fprintf(w, "\rexporting: %3.0f%%", ev.Progress*100)
			continue
		}
		fmt.Fprintln(w)

		if ev.Status == transcoder.StatusCompleted {
			return ev, nil
		}
		if ev.Err != nil {
			return ev, ev.Err
		}
		return ev, fmt.Errorf("unexpected export status %q", ev.Status)
	}
	return transcoder.Event{}, fmt.Errorf("%w: no terminal event", library.ErrExportFailed)
}

func copyFile(src, dst string) (err error) {
	in, err := filesystem.OpenWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy export: %w", err)
	}
	return nil
}
