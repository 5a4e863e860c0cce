// Package artifact defines the lifecycle vocabulary shared by every component
// that emits generated files: policies, file kinds, write outcomes and the
// error kinds a write can fail with.
package artifact

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Policy decides how a generated file may change across repeated runs.
type Policy int

const (
	// Automatron files are fully regenerated on every run.
	Automatron Policy = iota
	// Relic files are written once and owned by the user afterwards.
	Relic
	// Synthetic files are regenerated and reconciled with user edits.
	Synthetic
)

// Policies lists every known policy in declaration order.
var Policies = []Policy{Automatron, Relic, Synthetic}

func (p Policy) String() string {
	switch p {
	case Automatron:
		return "automatron"
	case Relic:
		return "relic"
	case Synthetic:
		return "synthetic"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a policy name (case-insensitive) to its Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "automatron":
		return Automatron, nil
	case "relic":
		return Relic, nil
	case "synthetic":
		return Synthetic, nil
	}
	return 0, fmt.Errorf("unknown policy %q (valid: automatron, relic, synthetic)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so policies can be read
// straight out of YAML manifests.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Kind is the lower-cased file kind of a path: the text after its last dot,
// or the whole base name when it has none (Dockerfile -> dockerfile).
type Kind string

// KindOf derives the file kind from a path.
func KindOf(p string) Kind {
	base := path.Base(filepath.ToSlash(p))
	if i := strings.LastIndex(base, "."); i >= 0 {
		return Kind(strings.ToLower(base[i+1:]))
	}
	return Kind(strings.ToLower(base))
}

// Artifact is one file emitted by a content producer. It is immutable for the
// duration of a write call.
type Artifact struct {
	RelPath string
	Kind    Kind
	Policy  Policy
}

// New validates relPath and returns the artifact describing it.
func New(policy Policy, relPath string) (Artifact, error) {
	clean, err := CleanPath(relPath)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{RelPath: clean, Kind: KindOf(clean), Policy: policy}, nil
}

// CleanPath normalizes a project-relative path to slash form. Paths that are
// empty, absolute, lack a file-name component or climb out of the project
// root fail with ErrInvalidPath.
func CleanPath(relPath string) (string, error) {
	raw := strings.TrimSpace(relPath)
	slashed := filepath.ToSlash(raw)
	if slashed == "" || strings.HasSuffix(slashed, "/") {
		return "", &IOError{Op: "resolve", Path: relPath, Err: ErrInvalidPath}
	}
	if path.IsAbs(slashed) || filepath.IsAbs(raw) || filepath.VolumeName(raw) != "" {
		return "", &IOError{Op: "resolve", Path: relPath, Err: ErrInvalidPath}
	}
	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", &IOError{Op: "resolve", Path: relPath, Err: ErrInvalidPath}
	}
	if base := path.Base(clean); base == "." || base == ".." {
		return "", &IOError{Op: "resolve", Path: relPath, Err: ErrInvalidPath}
	}
	return clean, nil
}

// Outcome reports what a write did to the target path.
type Outcome int

const (
	// Created means the target did not exist before the write.
	Created Outcome = iota
	// Overwritten means an existing target was replaced with different bytes.
	Overwritten
	// Skipped means a Relic target already existed and was left alone.
	Skipped
	// Merged means a Synthetic target was reconciled against its baseline.
	Merged
	// Unchanged means the target was rewritten with the bytes it already held.
	Unchanged
)

// Outcomes lists every outcome in declaration order.
var Outcomes = []Outcome{Created, Overwritten, Skipped, Merged, Unchanged}

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Overwritten:
		return "overwritten"
	case Skipped:
		return "skipped"
	case Merged:
		return "merged"
	case Unchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
