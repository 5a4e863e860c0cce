// Package scaffold holds the built-in content producers behind `anubis init`.
package scaffold

import (
	"strings"

	"anubis/internal/artifact"
	"anubis/internal/config"
	"anubis/internal/manifest"
)

// Options are the answers to init's flags.
type Options struct {
	Name        string
	Description string
	Version     string
	// Copyright is the unformatted template, {YYYY} included.
	Copyright string
}

const schemaPreamble = `# Anubis.yaml
#
# This file is an Anubis relic: it is generated once during initialization.
# Edit it freely; Anubis will not touch it again.
# Run ` + "`anubis validate`" + ` to check it.

`

// IgnoredPaths are always listed in the generated .gitignore.
var IgnoredPaths = []string{
	"# Anubis baseline cache, journal and logs",
	".anubis/",
	"",
	"# Unit testing results",
	"test-results/",
	"",
	"# Frontend",
	"node_modules/",
	"yarn-error.log",
}

// Config returns the project configuration init persists.
func Config(opts Options) *config.Config {
	cfg := config.DefaultConfig()
	if opts.Name != "" {
		cfg.Project.Name = opts.Name
	}
	if opts.Version != "" {
		cfg.Project.Version = opts.Version
	}
	cfg.Project.Description = opts.Description
	cfg.Project.CopyrightHeader = opts.Copyright
	return cfg
}

// Items returns the artifacts init writes: Anubis.yaml as a Relic holding the
// unformatted copyright template, and .gitignore as an Automatron.
func Items(opts Options) ([]manifest.Item, error) {
	data, err := Config(opts).Marshal()
	if err != nil {
		return nil, err
	}

	schema, err := artifact.New(artifact.Relic, config.FileName)
	if err != nil {
		return nil, err
	}
	ignore, err := artifact.New(artifact.Automatron, ".gitignore")
	if err != nil {
		return nil, err
	}

	return []manifest.Item{
		{Artifact: schema, Content: schemaPreamble + string(data)},
		{Artifact: ignore, Content: strings.Join(IgnoredPaths, "\n") + "\n"},
	}, nil
}
