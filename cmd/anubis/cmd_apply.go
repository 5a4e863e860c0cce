package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"anubis/internal/generate"
	"anubis/internal/manifest"
	"anubis/internal/watch"
)

// applyCmd runs a manifest once.
var applyCmd = &cobra.Command{
	Use:   "apply [manifest]",
	Short: "Write every artifact listed in a manifest",
	Long: `Loads the manifest (default: anubis.manifest.yaml at the project root), reads
all source files, then writes the artifacts in order. The run stops at the
first failing write; earlier writes are kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

// watchCmd re-applies a manifest on change.
var watchCmd = &cobra.Command{
	Use:   "watch [manifest]",
	Short: "Apply a manifest, then re-apply whenever it or a source changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runApply(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	sum, err := p.applyManifest(cmd.Context(), p.manifestPath(args))
	printSummary(cmd.OutOrStdout(), "anubis apply", sum)
	return err
}

func (p *project) applyManifest(ctx context.Context, path string) (*generate.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	items, err := m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return p.run(items)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	path := p.manifestPath(args)
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	apply := func(ctx context.Context) error {
		sum, err := p.applyManifest(ctx, path)
		printSummary(out, "anubis watch", sum)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("error: ")+err.Error())
		}
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A failing first run is reported and the watch continues.
	_ = apply(ctx)

	// TODO: re-arm the watcher when the manifest's source list changes; new
	// sources are only picked up after a restart.
	w, err := watch.New(m.Sources(), p.cfg.GetDebounce(), apply)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("watching %d files, Ctrl+C to stop", len(m.Sources()))))

	<-ctx.Done()
	w.Stop()
	stats := w.Stats()
	logger.Info("watch stopped",
		zap.Int("events", stats.Events),
		zap.Int("runs", stats.Runs),
		zap.Int("errors", stats.Errors))
	return nil
}
