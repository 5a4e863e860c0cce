// Package diff aligns texts line by line using the sergi/go-diff Myers engine.
// Align exposes the raw per-line edit script used by reconciliation; the
// Engine groups it into unified hunks for display.
package diff

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// OpKind classifies one line of an edit script.
type OpKind int

const (
	Equal  OpKind = iota // line present in both sides
	Delete               // line only in the old side
	Insert               // line only in the new side
)

func (k OpKind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one line of an edit script. A indexes the old side and B the new
// side; the index that does not apply is -1.
type Op struct {
	Kind OpKind
	A    int
	B    int
}

// SplitLines breaks text into lines. A trailing \r is stripped from every
// line and the empty element after a final newline is dropped, so "" has no
// lines and "a\n" has one.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Align computes the line edit script turning a into b.
func Align(a, b []string) []Op {
	ra, rb := encodeLines(a, b)

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(ra, rb, false)

	ops := make([]Op, 0, len(a)+len(b))
	ai, bi := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		for i := 0; i < n; i++ {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, Op{Kind: Equal, A: ai, B: bi})
				ai++
				bi++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, Op{Kind: Delete, A: ai, B: -1})
				ai++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, Op{Kind: Insert, A: -1, B: bi})
				bi++
			}
		}
	}
	return ops
}

// encodeLines maps every distinct line to one rune so the character-level
// Myers implementation diffs whole lines. Surrogate code points are skipped
// so every rune survives the round trip through a Go string.
func encodeLines(a, b []string) ([]rune, []rune) {
	ids := make(map[string]rune, len(a)+len(b))
	next := rune(1)
	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for i, l := range lines {
			r, ok := ids[l]
			if !ok {
				if next >= 0xD800 && next <= 0xDFFF {
					next = 0xE000
				}
				r = next
				ids[l] = r
				next++
			}
			out[i] = r
		}
		return out
	}
	return encode(a), encode(b)
}

// LineType represents the type of a rendered diff line.
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// Line is a single line inside a hunk.
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk is a group of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff holds the hunks between two versions of one file.
type FileDiff struct {
	OldPath  string
	NewPath  string
	Hunks    []Hunk
	IsNew    bool
	IsDelete bool
}

// Empty reports whether both versions are line-for-line identical.
func (f *FileDiff) Empty() bool {
	return len(f.Hunks) == 0
}

// Unified renders the diff in unified format.
func (f *FileDiff) Unified() string {
	if f.Empty() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", f.OldPath, f.NewPath)
	for _, h := range f.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				b.WriteString("+")
			case LineRemoved:
				b.WriteString("-")
			default:
				b.WriteString(" ")
			}
			b.WriteString(l.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Engine computes hunked diffs and caches results for identical inputs.
type Engine struct {
	contextLines int
	cache        sync.Map
}

type cacheKey struct {
	oldHash uint64
	newHash uint64
}

// NewEngine creates an engine emitting three lines of context.
func NewEngine() *Engine {
	return &Engine{contextLines: 3}
}

// DefaultEngine is a shared engine for general use.
var DefaultEngine = NewEngine()

// ComputeDiff is a convenience function using the default engine.
func ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	return DefaultEngine.ComputeDiff(oldPath, newPath, oldContent, newContent)
}

// ComputeDiff creates a FileDiff from old and new content strings.
func (e *Engine) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	key := cacheKey{hash(oldContent), hash(newContent)}
	if cached, ok := e.cache.Load(key); ok {
		result := *cached.(*FileDiff)
		result.OldPath = oldPath
		result.NewPath = newPath
		return &result
	}

	oldLines := SplitLines(oldContent)
	newLines := SplitLines(newContent)
	fd := &FileDiff{
		OldPath:  oldPath,
		NewPath:  newPath,
		IsNew:    oldContent == "",
		IsDelete: newContent == "",
		Hunks:    e.groupIntoHunks(Align(oldLines, newLines), oldLines, newLines),
	}

	e.cache.Store(key, fd)
	return fd
}

// ClearCache drops every cached diff.
func (e *Engine) ClearCache() {
	e.cache.Range(func(k, _ any) bool {
		e.cache.Delete(k)
		return true
	})
}

// groupIntoHunks groups an edit script into hunks separated by more than
// twice the context length of unchanged lines.
func (e *Engine) groupIntoHunks(ops []Op, oldLines, newLines []string) []Hunk {
	var hunks []Hunk
	ctx := e.contextLines
	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].Kind == Equal {
			i++
		}
		if i == len(ops) {
			break
		}

		start := max(i-ctx, 0)

		// Extend the hunk while changes are within 2*ctx equal lines of each other.
		end := i
		for end < len(ops) {
			if ops[end].Kind != Equal {
				end++
				continue
			}
			run := end
			for run < len(ops) && ops[run].Kind == Equal {
				run++
			}
			if run == len(ops) || run-end > 2*ctx {
				end += min(run-end, ctx)
				break
			}
			end = run
		}

		hunks = append(hunks, buildHunk(ops[start:end], oldLines, newLines))
		i = end
	}
	return hunks
}

func buildHunk(ops []Op, oldLines, newLines []string) Hunk {
	h := Hunk{Lines: make([]Line, 0, len(ops))}
	oldStart, newStart := -1, -1
	lastOld, lastNew := -1, -1
	for _, op := range ops {
		switch op.Kind {
		case Equal:
			h.Lines = append(h.Lines, Line{LineNum: op.A + 1, Content: oldLines[op.A], Type: LineContext})
			h.OldCount++
			h.NewCount++
		case Delete:
			h.Lines = append(h.Lines, Line{LineNum: op.A + 1, Content: oldLines[op.A], Type: LineRemoved})
			h.OldCount++
		case Insert:
			h.Lines = append(h.Lines, Line{LineNum: op.B + 1, Content: newLines[op.B], Type: LineAdded})
			h.NewCount++
		}
		if op.A >= 0 {
			if oldStart < 0 {
				oldStart = op.A
			}
			lastOld = op.A
		}
		if op.B >= 0 {
			if newStart < 0 {
				newStart = op.B
			}
			lastNew = op.B
		}
	}
	h.OldStart = startLine(oldStart, lastOld, h.OldCount)
	h.NewStart = startLine(newStart, lastNew, h.NewCount)
	return h
}

// startLine follows the unified format convention: 1-based, and the line
// before the hunk when a side contributes no lines.
func startLine(first, last, count int) int {
	if count == 0 {
		return last + 1
	}
	return first + 1
}

// hash computes an FNV-1a hash for caching.
func hash(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
