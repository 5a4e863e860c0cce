package main

import (
	"time"

	"github.com/spf13/cobra"

	"anubis/internal/config"
	"anubis/internal/scaffold"
)

var (
	initName        string
	initCopyright   string
	initDescription string
	initVersion     string
)

// initCmd scaffolds a new project.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create Anubis.yaml and the .gitignore for a project",
	Long: `Writes Anubis.yaml as a relic (written once, yours to edit) and .gitignore as
an automatron that keeps the .anubis/ cache out of version control.

The copyright template may contain {YYYY}; it is stored unformatted and
substituted with the current year in every generated header.

Example:
  anubis init --name shop --copyright "Copyright {YYYY} Shop Inc."`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "My Project", "Project name")
	initCmd.Flags().StringVar(&initCopyright, "copyright", "", "Copyright header template ({YYYY} is replaced by the year)")
	initCmd.Flags().StringVar(&initDescription, "description", "", "Project description")
	initCmd.Flags().StringVar(&initVersion, "version", "0.1.0", "Project version")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	opts := scaffold.Options{
		Name:        initName,
		Description: initDescription,
		Version:     initVersion,
		Copyright:   initCopyright,
	}
	cfg := scaffold.Config(opts)
	p, err := newProject(root, cfg, config.FormatCopyright(opts.Copyright, time.Now().Year()))
	if err != nil {
		return err
	}

	items, err := scaffold.Items(opts)
	if err != nil {
		return err
	}
	sum, err := p.run(items)
	printSummary(cmd.OutOrStdout(), "anubis init", sum)
	return err
}
