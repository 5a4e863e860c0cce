package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"anubis/internal/fsutil"
)

// FileName is the project configuration file at the project root.
const FileName = "Anubis.yaml"

// YearPlaceholder is replaced by the current year in the copyright header.
const YearPlaceholder = "{YYYY}"

// Config holds all Anubis project configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`

	// Baseline cache subtree, relative to the project root.
	BaselineDir string `yaml:"baseline_dir"`

	// Write history database
	Journal JournalConfig `yaml:"journal"`

	// Regenerate-on-change settings
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ProjectConfig describes the project being generated.
type ProjectConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version,omitempty"`

	// CopyrightHeader is a template; {YYYY} is substituted at write time.
	CopyrightHeader string `yaml:"copyright_header,omitempty"`
}

// JournalConfig configures the SQLite write journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig configures anubis watch.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:    "anubis-project",
			Version: "0.1.0",
		},
		BaselineDir: ".anubis/cache",
		Journal: JournalConfig{
			Enabled: true,
			Path:    ".anubis/journal.db",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadProject loads FileName from the project root.
func LoadProject(root string) (*Config, error) {
	return Load(filepath.Join(root, FileName))
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ANUBIS_COPYRIGHT_HEADER"); v != "" {
		c.Project.CopyrightHeader = v
	}
	if v := os.Getenv("ANUBIS_BASELINE_DIR"); v != "" {
		c.BaselineDir = v
	}
	if v := os.Getenv("ANUBIS_JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
	}
	if v := os.Getenv("ANUBIS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ANUBIS_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// FormatCopyright substitutes year for every {YYYY} in template.
func FormatCopyright(template string, year int) string {
	return strings.ReplaceAll(template, YearPlaceholder, strconv.Itoa(year))
}

// CopyrightFormatted returns the copyright header rendered for year.
func (c *Config) CopyrightFormatted(year int) string {
	return FormatCopyright(c.Project.CopyrightHeader, year)
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// JournalPath resolves the journal database under root.
func (c *Config) JournalPath(root string) string {
	if filepath.IsAbs(c.Journal.Path) {
		return c.Journal.Path
	}
	return filepath.Join(root, filepath.FromSlash(c.Journal.Path))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project.Name) == "" {
		return fmt.Errorf("project.name must not be empty")
	}

	if c.BaselineDir != "" {
		slashed := filepath.ToSlash(c.BaselineDir)
		if path.IsAbs(slashed) || filepath.IsAbs(c.BaselineDir) {
			return fmt.Errorf("baseline_dir must be relative to the project root: %s", c.BaselineDir)
		}
		clean := path.Clean(slashed)
		if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("baseline_dir must stay inside the project root: %s", c.BaselineDir)
		}
	}

	if c.Watch.Debounce != "" {
		d, err := time.ParseDuration(c.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("invalid watch.debounce %q: %w", c.Watch.Debounce, err)
		}
		if d <= 0 {
			return fmt.Errorf("watch.debounce must be positive: %s", c.Watch.Debounce)
		}
	}

	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return fmt.Errorf("journal.path must be set when the journal is enabled")
	}

	return nil
}
