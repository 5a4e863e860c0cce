package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"anubis/internal/artifact"
	"anubis/internal/diff"
	"anubis/internal/fsutil"
	"anubis/internal/header"
	"anubis/internal/manifest"
)

var historyLimit int

// diffCmd shows the user's edits to a synthetic file.
var diffCmd = &cobra.Command{
	Use:   "diff PATH",
	Short: "Show how a synthetic file on disk differs from its baseline",
	Long: `Prints a unified diff from the last machine-written baseline of PATH to the
file currently on disk, i.e. the edits the next merge will try to keep.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect stored baselines",
}

var baselineListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every path with a stored baseline",
	Args:  cobra.NoArgs,
	RunE:  runBaselineList,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show PATH",
	Short: "Print the stored baseline for PATH",
	Args:  cobra.ExactArgs(1),
	RunE:  runBaselineShow,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent writes from the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

// validateCmd checks config and manifest without writing anything.
var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check Anubis.yaml and the manifest, and show each artifact's header",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of writes to show")
}

func runDiff(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	rel, err := artifact.CleanPath(args[0])
	if err != nil {
		return err
	}

	store := p.writer.Baselines()
	base, ok, err := store.Read(rel)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no baseline for %s (not a synthetic artifact, or never written)", rel)
	}
	target, err := fsutil.Join(p.root, rel)
	if err != nil {
		return err
	}
	disk, _, err := fsutil.ReadFileIfExists(target)
	if err != nil {
		return &artifact.IOError{Op: "read", Path: target, Err: err}
	}

	basePath, _ := filepath.Rel(p.root, store.Dir())
	d := diff.ComputeDiff(path.Join(filepath.ToSlash(basePath), rel), rel, base, disk)
	out := cmd.OutOrStdout()
	if d.Empty() {
		fmt.Fprintln(out, dimStyle.Render("no user edits in "+rel))
		return nil
	}
	fmt.Fprint(out, d.Unified())
	return nil
}

func runBaselineList(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	paths, err := p.writer.Baselines().List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(paths) == 0 {
		fmt.Fprintln(out, dimStyle.Render("no baselines stored"))
		return nil
	}
	for _, rel := range paths {
		marker := ""
		if ok, _ := fsutil.Exists(filepath.Join(p.root, filepath.FromSlash(rel))); !ok {
			marker = " " + warnStyle.Render("(file missing)")
		}
		fmt.Fprintln(out, rel+marker)
	}
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	content, ok, err := p.writer.Baselines().Read(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no baseline for %s", args[0])
	}
	fmt.Fprint(cmd.OutOrStdout(), content)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	j, err := p.openJournal()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if j == nil {
		fmt.Fprintln(out, dimStyle.Render("journal disabled in configuration"))
		return nil
	}
	defer j.Close()

	entries, err := j.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, dimStyle.Render("no writes recorded"))
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %s %s %s  %s\n",
			dimStyle.Render(e.At.Format("2006-01-02 15:04:05")),
			outcomeStyle(e.Outcome).Width(12).Render(e.Outcome.String()),
			dimStyle.Width(11).Render(e.Policy.String()),
			pathStyle.Render(e.Path),
			dimStyle.Render(shortID(e.RunID)+" "+e.RunStatus))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", okStyle.Render("config ok:"), p.cfg.Project.Name)

	mpath := p.manifestPath(args)
	if len(args) == 0 {
		if ok, _ := fsutil.Exists(mpath); !ok {
			fmt.Fprintln(out, dimStyle.Render("no manifest at "+mpath))
			return nil
		}
	}
	m, err := manifest.Load(mpath)
	if err != nil {
		return err
	}

	var missing []error
	for i, a := range m.Parsed() {
		e := m.Artifacts[i]
		fmt.Fprintf(out, "  %s %s header: %s\n", dimStyle.Width(11).Render(a.Policy.String()), pathStyle.Render(a.RelPath), headerLabel(a.Kind))
		if e.Source != "" {
			src := e.Source
			if !filepath.IsAbs(src) {
				src = filepath.Join(m.Dir(), filepath.FromSlash(src))
			}
			if _, err := os.Stat(src); err != nil {
				missing = append(missing, fmt.Errorf("%s: source %s: %w", a.RelPath, e.Source, err))
			}
		}
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}
	fmt.Fprintf(out, "%s %d artifacts\n", okStyle.Render("manifest ok:"), len(m.Artifacts))
	return nil
}

func headerLabel(kind artifact.Kind) string {
	if header.Suppressed(kind) {
		return dimStyle.Render("none (" + string(kind) + " has no comment syntax)")
	}
	prefix, ok := header.CommentPrefix(kind)
	if !ok {
		return dimStyle.Render("none (unknown kind " + string(kind) + ")")
	}
	return prefix
}
