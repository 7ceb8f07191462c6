package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/library"
	"media-bridge/internal/logging"
	"media-bridge/internal/media"
	"media-bridge/internal/permission"
	"media-bridge/internal/transcoder"

	"github.com/spf13/cobra"
)

const (
	defaultMediaDir    = "/media"
	defaultDatabaseDir = "/database"

	// Exports made by the CLI are copied out immediately; the retention
	// only matters if the copy is interrupted.
	cliExportRetention = time.Minute
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	mediaDir    string
	databaseDir string
	exportDir   string
	createMedia bool
	verbose     bool
}

// app is one opened library.
type app struct {
	opts     *rootOptions
	db       *database.Database
	exporter *transcoder.Exporter
	service  *library.Service
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mediactl",
		Short: "Query and render the media library",
		Long: `mediactl lists collections, photos and videos from the media library index
and renders thumbnails, full images and video exports.

Run "mediactl index" first to build or refresh the index.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.mediaDir, "media-dir", envOr("MEDIA_DIR", defaultMediaDir), "Media directory")
	flags.StringVar(&opts.databaseDir, "database-dir", envOr("DATABASE_DIR", defaultDatabaseDir), "Directory holding media.db")
	flags.StringVar(&opts.exportDir, "export-dir", filepath.Join(os.TempDir(), "mediactl-exports"), "Scratch directory for video exports")
	flags.BoolVar(&opts.createMedia, "create-media-dir", false, "Create the media directory when authorization is requested")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newIndexCmd(opts),
		newAuthCmd(opts),
		newCollectionsCmd(opts),
		newListCmd(opts, "photos", "List image assets"),
		newListCmd(opts, "videos", "List video assets"),
		newThumbnailCmd(opts),
		newImageCmd(opts),
		newExportCmd(opts),
	)
	return root
}

func main() {
	// Cancel on interrupt so a running listing or export stops cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openApp opens the index and wires a library service over it.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	if err := os.MkdirAll(opts.databaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := database.New(ctx, filepath.Join(opts.databaseDir, "media.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database (DATABASE_DIR=%s): %w", opts.databaseDir, err)
	}

	exporter := transcoder.New(opts.mediaDir, opts.exportDir, 1, cliExportRetention)
	service := library.NewService(
		db,
		media.NewRenderer(opts.mediaDir),
		exporter,
		permission.NewDirectory(opts.mediaDir, opts.createMedia),
	)

	return &app{opts: opts, db: db, exporter: exporter, service: service}, nil
}

func (a *app) Close() {
	a.exporter.Cleanup()
	if err := a.db.Close(); err != nil {
		logging.Warn("Failed to close database: %v", err)
	}
}

// withApp runs fn against an opened library and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
