// Package manifest is the CLI's content producer: a YAML list of artifacts,
// each with a policy, a target path and either inline content or a source
// file to read it from.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"anubis/internal/artifact"
	"anubis/internal/logging"
)

// DefaultFileName is looked up at the project root when no manifest is named.
const DefaultFileName = "anubis.manifest.yaml"

// Entry is one artifact as written in the manifest file.
type Entry struct {
	Path    string  `yaml:"path"`
	Policy  string  `yaml:"policy"`
	Source  string  `yaml:"source,omitempty"`
	Content *string `yaml:"content,omitempty"`
}

// Manifest is a validated manifest file.
type Manifest struct {
	// Path is the absolute location of the manifest file.
	Path      string  `yaml:"-"`
	Artifacts []Entry `yaml:"artifacts"`

	parsed []artifact.Artifact
}

// Item is a resolved artifact ready for the writer.
type Item struct {
	Artifact artifact.Artifact
	Content  string
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(abs, data)
}

// Parse validates manifest bytes. path anchors relative source files.
func Parse(path string, data []byte) (*Manifest, error) {
	m := &Manifest{Path: path}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	logging.Manifest("loaded %s (%d artifacts)", path, len(m.Artifacts))
	return m, nil
}

func (m *Manifest) validate() error {
	var errs []error
	seen := make(map[string]int, len(m.Artifacts))
	m.parsed = make([]artifact.Artifact, len(m.Artifacts))

	for i, e := range m.Artifacts {
		where := fmt.Sprintf("artifacts[%d]", i)

		policy, err := artifact.ParsePolicy(e.Policy)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
			continue
		}
		a, err := artifact.New(policy, e.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
			continue
		}
		if prev, dup := seen[a.RelPath]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate path %s (first at artifacts[%d])", where, a.RelPath, prev))
			continue
		}
		seen[a.RelPath] = i

		switch {
		case e.Source != "" && e.Content != nil:
			errs = append(errs, fmt.Errorf("%s: %s sets both source and content", where, a.RelPath))
		case e.Source == "" && e.Content == nil:
			errs = append(errs, fmt.Errorf("%s: %s needs source or content", where, a.RelPath))
		}
		m.parsed[i] = a
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid manifest %s: %w", m.Path, errors.Join(errs...))
	}
	return nil
}

// Parsed returns the validated artifact of every entry, in manifest order.
func (m *Manifest) Parsed() []artifact.Artifact {
	return append([]artifact.Artifact(nil), m.parsed...)
}

// Dir is the directory relative sources resolve against.
func (m *Manifest) Dir() string { return filepath.Dir(m.Path) }

func (m *Manifest) sourcePath(src string) string {
	if filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(m.Dir(), filepath.FromSlash(src))
}

// Sources lists the files whose change should trigger a regeneration: the
// manifest itself and every source file.
func (m *Manifest) Sources() []string {
	out := []string{m.Path}
	for _, e := range m.Artifacts {
		if e.Source != "" {
			out = append(out, m.sourcePath(e.Source))
		}
	}
	return out
}

// Resolve reads every source file and returns items in manifest order.
// Reads run concurrently; the first failure cancels the rest.
func (m *Manifest) Resolve(ctx context.Context) ([]Item, error) {
	items := make([]Item, len(m.Artifacts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for i, e := range m.Artifacts {
		items[i].Artifact = m.parsed[i]
		if e.Content != nil {
			items[i].Content = *e.Content
			continue
		}
		src := m.sourcePath(e.Source)
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(src)
			if err != nil {
				return &artifact.IOError{Op: "read source", Path: src, Err: err}
			}
			items[i].Content = string(data)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logging.Manifest("resolved %d items from %s", len(items), m.Path)
	return items, nil
}
