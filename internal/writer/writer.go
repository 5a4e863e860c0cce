// Package writer is the single entry point content producers use to put an
// artifact on disk. It decorates content with the policy header and applies
// the policy: Automatron overwrites, Relic writes once, Synthetic reconciles
// with the user's edits through the baseline store.
package writer

import (
	"os"
	"path/filepath"

	"anubis/internal/artifact"
	"anubis/internal/baseline"
	"anubis/internal/fsutil"
	"anubis/internal/header"
	"anubis/internal/logging"
	"anubis/internal/reconcile"
)

// Options is the immutable project configuration a Writer is built from.
type Options struct {
	// Copyright is the year-substituted copyright text; empty disables the line.
	Copyright string
	// BaselineDir is the cache subtree relative to the root.
	BaselineDir string
}

// Result describes one completed write.
type Result struct {
	Path    string
	Policy  artifact.Policy
	Outcome artifact.Outcome
	Bytes   int
}

// Writer writes artifacts beneath one project root.
type Writer struct {
	root      string
	opts      Options
	baselines *baseline.Store
}

// New returns a writer for root.
func New(root string, opts Options) *Writer {
	return &Writer{
		root:      root,
		opts:      opts,
		baselines: baseline.NewStore(root, opts.BaselineDir),
	}
}

// Root returns the project root.
func (w *Writer) Root() string { return w.root }

// Baselines exposes the store backing Synthetic writes.
func (w *Writer) Baselines() *baseline.Store { return w.baselines }

// Write puts content at relPath under the given policy.
func (w *Writer) Write(policy artifact.Policy, relPath, content string) error {
	a, err := artifact.New(policy, relPath)
	if err != nil {
		return err
	}
	_, err = w.WriteArtifact(a, content)
	return err
}

// WriteArtifact is Write for an already validated artifact, reporting what
// happened to the target.
func (w *Writer) WriteArtifact(a artifact.Artifact, content string) (Result, error) {
	res := Result{Path: a.RelPath, Policy: a.Policy}

	target, err := fsutil.Join(w.root, a.RelPath)
	if err != nil {
		return res, &artifact.IOError{Op: "resolve", Path: a.RelPath, Err: artifact.ErrInvalidPath}
	}
	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return res, &artifact.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	h := header.Compose(a.Kind, w.opts.Copyright, a.Policy)
	decorated := h.Decorate(content)

	switch a.Policy {
	case artifact.Automatron:
		return w.overwrite(res, target, decorated)
	case artifact.Relic:
		return w.relic(res, target, decorated)
	case artifact.Synthetic:
		return w.synthetic(res, a.RelPath, target, decorated)
	default:
		return res, &artifact.IOError{Op: "write", Path: a.RelPath, Err: errUnknownPolicy(a.Policy)}
	}
}

func (w *Writer) overwrite(res Result, target, final string) (Result, error) {
	prev, existed, err := fsutil.ReadFileIfExists(target)
	if err != nil {
		return res, &artifact.IOError{Op: "read", Path: target, Err: err}
	}
	if err := fsutil.WriteFileAtomic(target, []byte(final)); err != nil {
		return res, &artifact.IOError{Op: "write", Path: target, Err: err}
	}
	res.Outcome = outcomeFor(existed, prev == final)
	res.Bytes = len(final)
	logging.Writer("automatron %s: %s (%d bytes)", res.Path, res.Outcome, res.Bytes)
	return res, nil
}

func (w *Writer) relic(res Result, target, final string) (Result, error) {
	exists, err := fsutil.Exists(target)
	if err != nil {
		return res, &artifact.IOError{Op: "stat", Path: target, Err: err}
	}
	if exists {
		res.Outcome = artifact.Skipped
		logging.Writer("relic %s: already present, left untouched", res.Path)
		return res, nil
	}
	if err := fsutil.WriteFileAtomic(target, []byte(final)); err != nil {
		return res, &artifact.IOError{Op: "write", Path: target, Err: err}
	}
	res.Outcome = artifact.Created
	res.Bytes = len(final)
	logging.Writer("relic %s: created (%d bytes)", res.Path, res.Bytes)
	return res, nil
}

func (w *Writer) synthetic(res Result, rel, target, next string) (Result, error) {
	base, hasBase, err := w.baselines.Read(rel)
	if err != nil {
		return res, err
	}
	disk, hasDisk, err := fsutil.ReadFileIfExists(target)
	if err != nil {
		return res, &artifact.IOError{Op: "read", Path: target, Err: err}
	}

	var bp, dp *string
	if hasBase {
		bp = &base
	}
	if hasDisk {
		dp = &disk
	}
	merged, rep := reconcile.MergeWithReport(bp, dp, next)

	if err := fsutil.WriteFileAtomic(target, []byte(merged)); err != nil {
		return res, &artifact.IOError{Op: "write", Path: target, Err: err}
	}
	if err := w.baselines.Write(rel, next); err != nil {
		return res, err
	}

	switch {
	case hasDisk && disk == merged:
		res.Outcome = artifact.Unchanged
	case rep.Passthrough:
		res.Outcome = outcomeFor(hasDisk, false)
	default:
		res.Outcome = artifact.Merged
	}
	res.Bytes = len(merged)

	if rep.Passthrough {
		logging.Writer("synthetic %s: %s without reconciliation (baseline=%v, disk=%v)", rel, res.Outcome, hasBase, hasDisk)
	} else {
		logging.Reconcile("%s: inserted=%d kept_edits=%d dropped_edits=%d restored=%d",
			rel, rep.Inserted, rep.KeptEdits, rep.DroppedEdits, rep.Restored)
		if rep.DroppedEdits > 0 {
			logging.Get(logging.CategoryReconcile).Warn("%s: %d user-edited lines replaced by regenerated text", rel, rep.DroppedEdits)
		}
		logging.Writer("synthetic %s: %s (%d bytes)", rel, res.Outcome, res.Bytes)
	}
	return res, nil
}

func outcomeFor(existed, same bool) artifact.Outcome {
	switch {
	case !existed:
		return artifact.Created
	case same:
		return artifact.Unchanged
	default:
		return artifact.Overwritten
	}
}
