package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mindmap/internal/llm"
	"github.com/ziadkadry99/mindmap/internal/progress"
	"github.com/ziadkadry99/mindmap/internal/render"
	"github.com/ziadkadry99/mindmap/internal/session"
	"github.com/ziadkadry99/mindmap/internal/store"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

var (
	exploreDepth  int
	exploreExport string
	exploreSave   bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore <topic>",
	Short: "Generate a knowledge tree and print it as an outline",
	Long: `Generates a tree for the topic, expands every branch down to --depth,
prints the outline, and optionally exports it (format taken from the file
extension: .png, .jpg/.jpeg or .pdf) or saves it for the server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().IntVarP(&exploreDepth, "depth", "d", 0, "levels to expand below the root (default from config)")
	exploreCmd.Flags().StringVarP(&exploreExport, "export", "o", "", "write the map to this file")
	exploreCmd.Flags().BoolVar(&exploreSave, "save", false, "save the map to the database")
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	depth := exploreDepth
	if depth <= 0 {
		depth = cfg.DefaultDepth
	}

	var format render.Format
	if exploreExport != "" {
		format, err = render.ParseFormat(strings.TrimPrefix(filepath.Ext(exploreExport), "."))
		if err != nil {
			return fmt.Errorf("--export: %w", err)
		}
	}

	usage := &llm.Usage{}
	gen, err := newGenerator(cfg, logger, usage)
	if err != nil {
		return err
	}

	opts := []session.Option{
		session.WithDefaultColor(cfg.DefaultColor),
		session.WithExportOptions(
			render.WithJPEGQuality(cfg.Export.JPEGQuality),
		),
	}
	if exploreSave {
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		opts = append(opts, session.WithRepository(store.NewStore(database)))
	}
	sessions := session.NewManager(gen, logger, opts...)

	query := strings.Join(args, " ")
	fmt.Fprintf(os.Stderr, "Generating map for %q...\n", query)
	s, err := sessions.Create(ctx, query)
	if err != nil {
		return fmt.Errorf("generating map: %w", err)
	}

	reporter := progress.NewReporter()
	err = s.Tree().ExpandToDepth(ctx, depth, workers(cfg), progress.Track(reporter))
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("expanding map: %w", err)
	}

	fmt.Print(tree.Outline(s.Tree().Root(), false))

	if exploreExport != "" {
		if err := s.ExportFile(ctx, format, exploreExport); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %s\n", exploreExport)
	}
	if exploreSave {
		if err := sessions.Save(ctx, s.ID); err != nil {
			return fmt.Errorf("saving map: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved map %s\n", s.ID)
	}

	t := usage.Totals()
	fmt.Fprintf(os.Stderr, "LLM requests: %d (%d failed), tokens in/out: %d/%d, est. cost: $%.4f\n",
		t.Requests, t.Failures, t.InputTokens, t.OutputTokens, t.CostUSD)
	return nil
}
