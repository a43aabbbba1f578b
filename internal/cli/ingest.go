package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"framesearch/config"
	"framesearch/internal/adapter/decoder"
	"framesearch/internal/adapter/fs"
	"framesearch/internal/adapter/store"
	"framesearch/internal/usecase"
)

var (
	ingestTitle    string
	ingestInterval int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Sample, embed and store video frames",
	Long: `Ingest one or more videos. Every Nth decoded frame is embedded and
stored; directories are expanded to the video files they contain.

Examples:
  framesearch ingest holiday.mp4
  framesearch ingest ./footage --interval 60
  framesearch ingest clip.mp4 --title "Demo clip"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "video title (single video only; defaults to the file name)")
	ingestCmd.Flags().IntVarP(&ingestInterval, "interval", "i", 0, "sampling interval in frames (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	interval := cfg.Ingest.Interval
	if ingestInterval > 0 {
		interval = ingestInterval
	}

	// Expand directories through the media walker.
	var paths []string
	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("path does not exist: %w", err)
		}
		if info.IsDir() {
			files, err := walker.Walk(arg)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", arg, err)
			}
			for _, f := range files {
				paths = append(paths, f.Path)
			}
		} else {
			paths = append(paths, arg)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no video files found")
	}
	if ingestTitle != "" && len(paths) > 1 {
		return fmt.Errorf("--title applies to a single video, got %d", len(paths))
	}

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(config.IndexDBPath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}
	defer st.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	pipeline, err := usecase.NewIngestPipeline(st, embedder, interval, logger)
	if err != nil {
		return err
	}

	dec := decoder.NewFFmpegDecoder()

	for _, path := range paths {
		bar := progressbar.Default(-1, fmt.Sprintf("embedding %s", filepath.Base(path)))
		pipeline.WithProgress(func(int) { bar.Add(1) })

		stream, err := dec.Open(ctx, path)
		if err != nil {
			return err
		}

		duration, err := dec.Probe(ctx, path)
		if err != nil {
			logger.Debug("could not probe video duration", "path", path, "error", err)
		}

		title := ingestTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		report, err := pipeline.Ingest(ctx, usecase.IngestRequest{
			Title:    title,
			Source:   path,
			Duration: duration,
		}, stream)
		stream.Close()
		bar.Finish()
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		fmt.Printf("Ingested %s: %d of %d sampled frames embedded (video %s)\n",
			path, report.FramesEmbedded, report.FramesSampled, report.VideoID)
		for _, skip := range report.Skipped {
			fmt.Printf("  skipped frame %d: %s\n", skip.FrameIndex, skip.Reason)
		}
	}

	return nil
}
