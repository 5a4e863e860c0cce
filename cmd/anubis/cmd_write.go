package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"anubis/internal/artifact"
	"anubis/internal/manifest"
)

var (
	writePolicy string
	writePath   string
	writeFrom   string
)

// writeCmd performs a single write.
var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write one artifact under a policy",
	Long: `Writes content to a project-relative path. Content comes from --from or,
when that is omitted, from standard input.

Example:
  echo "node_modules/" | anubis write --policy automatron --path .gitignore
  anubis write --policy synthetic --path api/config.yml --from templates/config.yml`,
	Args: cobra.NoArgs,
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writePolicy, "policy", "", "automatron, relic or synthetic (required)")
	writeCmd.Flags().StringVar(&writePath, "path", "", "Target path relative to the project root (required)")
	writeCmd.Flags().StringVar(&writeFrom, "from", "", "Read content from this file instead of stdin")
	writeCmd.MarkFlagRequired("policy")
	writeCmd.MarkFlagRequired("path")
}

func runWrite(cmd *cobra.Command, args []string) error {
	policy, err := artifact.ParsePolicy(writePolicy)
	if err != nil {
		return err
	}
	a, err := artifact.New(policy, writePath)
	if err != nil {
		return err
	}

	var content []byte
	if writeFrom != "" {
		content, err = os.ReadFile(writeFrom)
	} else {
		content, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	p, err := openProject()
	if err != nil {
		return err
	}
	sum, err := p.run([]manifest.Item{{Artifact: a, Content: string(content)}})
	printSummary(cmd.OutOrStdout(), "anubis write", sum)
	return err
}
