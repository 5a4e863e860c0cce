package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"anubis/internal/config"
	"anubis/internal/generate"
	"anubis/internal/journal"
	"anubis/internal/logging"
	"anubis/internal/manifest"
	"anubis/internal/writer"
)

// project bundles what every command needs: the root, its configuration and
// a writer built from that configuration.
type project struct {
	root   string
	cfg    *config.Config
	writer *writer.Writer
}

func resolveRoot() (string, error) {
	root := workspace
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		root = cwd
	}
	return filepath.Abs(root)
}

func resolveConfigPath(root string) string {
	if configPath == "" {
		return filepath.Join(root, config.FileName)
	}
	if filepath.IsAbs(configPath) {
		return configPath
	}
	return filepath.Join(root, configPath)
}

// openProject loads and validates the project configuration.
func openProject() (*project, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(resolveConfigPath(root))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return newProject(root, cfg, cfg.CopyrightFormatted(time.Now().Year()))
}

func newProject(root string, cfg *config.Config, copyright string) (*project, error) {
	if err := logging.Initialize(root, cfg.Logging.ToLogging()); err != nil {
		logger.Warn("file logging disabled", zap.Error(err))
	}
	logging.Boot("project %s at %s", cfg.Project.Name, root)

	w := writer.New(root, writer.Options{
		Copyright:   copyright,
		BaselineDir: cfg.BaselineDir,
	})
	return &project{root: root, cfg: cfg, writer: w}, nil
}

// openJournal returns nil when the journal is disabled.
func (p *project) openJournal() (*journal.Journal, error) {
	if !p.cfg.Journal.Enabled {
		return nil, nil
	}
	return journal.Open(p.cfg.JournalPath(p.root))
}

// run writes items through a runner, journaling when enabled.
func (p *project) run(items []manifest.Item) (*generate.Summary, error) {
	j, err := p.openJournal()
	if err != nil {
		logger.Warn("journal unavailable", zap.Error(err))
		j = nil
	}
	var rec generate.Recorder
	if j != nil {
		defer j.Close()
		rec = j
	}

	sum, runErr := generate.NewRunner(p.writer, rec).Run(items)
	fields := []zap.Field{
		zap.String("run_id", sum.RunID),
		zap.Int("written", len(sum.Results)),
		zap.Duration("took", sum.Duration()),
	}
	if runErr != nil {
		logger.Error("run aborted", append(fields, zap.Error(runErr))...)
	} else {
		logger.Debug("run finished", fields...)
	}
	return sum, runErr
}

func (p *project) manifestPath(args []string) string {
	if len(args) > 0 {
		if filepath.IsAbs(args[0]) {
			return args[0]
		}
		return filepath.Join(p.root, args[0])
	}
	return filepath.Join(p.root, manifest.DefaultFileName)
}
