// Package reconcile merges regenerated machine output with a user's edits to
// a Synthetic artifact. The merge is three-way and line-granular: the
// baseline (what the machine last wrote) is aligned against the on-disk file
// to find user changes, and against the new output to find machine changes.
// User insertions are re-attached to the baseline line they followed.
//
// Conflict rule: when the user and the machine both changed the same
// baseline lines, the machine's text is emitted and the user's is dropped.
package reconcile

import (
	"strings"

	"anubis/internal/diff"
)

// Report counts the decisions taken by one merge.
type Report struct {
	// Passthrough is set when there was nothing to reconcile against.
	Passthrough bool
	// Inserted counts user-inserted lines spliced into the output.
	Inserted int
	// KeptEdits counts user-edited lines kept because the machine left the
	// lines they replaced untouched.
	KeptEdits int
	// DroppedEdits counts user-edited lines discarded because the machine
	// changed the same lines.
	DroppedEdits int
	// Restored counts user-deleted lines emitted again because the new
	// output still contains them.
	Restored int
}

// Merge reconciles baseline, disk and next. A nil baseline or disk means the
// corresponding text does not exist; next is then returned as is. The result
// always ends with exactly one newline.
func Merge(baseline, disk *string, next string) string {
	out, _ := MergeWithReport(baseline, disk, next)
	return out
}

// MergeWithReport is Merge plus a summary of what the merge did.
func MergeWithReport(baseline, disk *string, next string) (string, Report) {
	if baseline == nil || disk == nil {
		return Normalize(next), Report{Passthrough: true}
	}

	b := diff.SplitLines(*baseline)
	d := diff.SplitLines(*disk)
	n := diff.SplitLines(next)

	user := analyzeUser(b, d)
	lines, rep := weave(b, n, user)
	return Normalize(joinLines(lines)), rep
}

// Normalize guarantees text ends with exactly one newline.
func Normalize(text string) string {
	return strings.TrimRight(text, "\r\n") + "\n"
}

// joinLines leaves the trailing newline to Normalize.
func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// userChanges is the baseline -> disk alignment folded into anchored hunks.
type userChanges struct {
	// inserts holds pure insertion runs keyed by the baseline line they
	// follow; -1 is the start of the file.
	inserts map[int][]string
	// editOf maps a baseline line to the edit hunk that replaced it.
	editOf map[int]*edit
	// deleted marks baseline lines the user removed without replacement.
	deleted map[int]bool
}

// edit is a run of baseline lines the user replaced with other text.
type edit struct {
	replaced    []int
	replacement []string
	emitted     bool
}

func analyzeUser(b, d []string) userChanges {
	uc := userChanges{
		inserts: make(map[int][]string),
		editOf:  make(map[int]*edit),
		deleted: make(map[int]bool),
	}

	anchor := -1
	var removed []int
	var added []string
	flush := func() {
		switch {
		case len(removed) > 0 && len(added) > 0:
			e := &edit{replaced: removed, replacement: added}
			for _, bi := range removed {
				uc.editOf[bi] = e
			}
		case len(removed) > 0:
			for _, bi := range removed {
				uc.deleted[bi] = true
			}
		case len(added) > 0:
			uc.inserts[anchor] = append(uc.inserts[anchor], added...)
		}
		removed, added = nil, nil
	}

	for _, op := range diff.Align(b, d) {
		switch op.Kind {
		case diff.Equal:
			flush()
			anchor = op.A
		case diff.Delete:
			removed = append(removed, op.A)
		case diff.Insert:
			added = append(added, d[op.B])
		}
	}
	flush()
	return uc
}

// weave walks the baseline -> next alignment and re-attaches user changes.
func weave(b, n []string, uc userChanges) ([]string, Report) {
	var rep Report
	ops := diff.Align(b, n)

	// An edit survives only when the machine kept every line it replaced.
	kept := make(map[int]bool, len(b))
	for _, op := range ops {
		if op.Kind == diff.Equal {
			kept[op.A] = true
		}
	}
	machineKeptAll := func(e *edit) bool {
		for _, bi := range e.replaced {
			if !kept[bi] {
				return false
			}
		}
		return true
	}

	out := make([]string, 0, len(n)+len(uc.inserts[-1]))
	splice := func(anchor int) {
		run := uc.inserts[anchor]
		out = append(out, run...)
		rep.Inserted += len(run)
	}

	splice(-1)

	// Anchors whose baseline line the machine changed or removed wait for
	// the end of the machine's change region.
	var pending []int
	flushPending := func() {
		for _, a := range pending {
			splice(a)
		}
		pending = pending[:0]
	}

	for _, op := range ops {
		switch op.Kind {
		case diff.Equal:
			flushPending()
			if e, ok := uc.editOf[op.A]; ok {
				if machineKeptAll(e) {
					if !e.emitted {
						out = append(out, e.replacement...)
						rep.KeptEdits += len(e.replacement)
						e.emitted = true
					}
				} else {
					out = append(out, n[op.B])
				}
			} else {
				if uc.deleted[op.A] {
					rep.Restored++
				}
				out = append(out, n[op.B])
			}
			splice(op.A)
		case diff.Delete:
			if e, ok := uc.editOf[op.A]; ok && !e.emitted {
				rep.DroppedEdits += len(e.replacement)
				e.emitted = true
			}
			pending = append(pending, op.A)
		case diff.Insert:
			out = append(out, n[op.B])
		}
	}
	flushPending()
	return out, rep
}
