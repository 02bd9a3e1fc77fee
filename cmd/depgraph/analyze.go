package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/depgraph/internal/config"
	"github.com/matsen/depgraph/internal/s2"
	"github.com/matsen/depgraph/internal/viz"
)

var (
	analyzeMaxDepth int
	analyzeHTML     string
	analyzeLayout   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <paper-id>",
	Short: "Build the dependency graph for a paper",
	Long: `Build the mathematical dependency graph for a paper.

The identifier may be a DOI (including DataCite arXiv DOIs like
10.48550/arXiv.2101.00001), an arXiv id, or a Semantic Scholar paper id.
Outputs the graph as JSON nodes and edges.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeMaxDepth, "max-depth", -1, "Maximum recursion depth (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeHTML, "html", "", "Write an interactive HTML visualization to this path")
	analyzeCmd.Flags().StringVar(&analyzeLayout, "layout", "force", "HTML layout: force, circle, or grid")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	paperID := strings.TrimSpace(args[0])
	if paperID == "" {
		exitWithError(ExitError, "paper identifier is required")
	}

	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	st, err := newStack(cmd.Context(), cfg, analyzeMaxDepth)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer st.Close()

	data := st.builder.Build(cmd.Context(), paperID)
	if data.IsEmpty() {
		// Distinguish an unknown identifier from a paper with no
		// identifiable dependencies.
		if _, err := st.provider.GetPaper(cmd.Context(), paperID); err != nil {
			if s2.IsNotFound(err) {
				exitWithError(ExitNotFound, "paper %q not found in Semantic Scholar", paperID)
			}
			exitWithError(ExitError, "looking up paper %q: %v", paperID, err)
		}
		exitWithError(ExitNoDependencies, "no dependencies identified for %q", paperID)
	}

	if analyzeHTML != "" {
		html, err := viz.GenerateHTML(data, viz.HTMLOptions{Layout: analyzeLayout})
		if err != nil {
			exitWithError(ExitError, "generating HTML: %v", err)
		}
		if err := os.WriteFile(analyzeHTML, []byte(html), 0o644); err != nil {
			exitWithError(ExitError, "writing %s: %v", analyzeHTML, err)
		}
		if humanOutput {
			outputHuman("Wrote %s (%d nodes, %d edges)\n", analyzeHTML, len(data.Nodes), len(data.Edges))
		} else {
			outputJSON(map[string]interface{}{
				"status": "written",
				"path":   analyzeHTML,
				"nodes":  len(data.Nodes),
				"edges":  len(data.Edges),
			})
		}
		return nil
	}

	if humanOutput {
		outputHuman("Dependency graph for %s\n", paperID)
		outputHuman("Nodes: %d  Edges: %d\n\n", len(data.Nodes), len(data.Edges))
		for _, n := range data.Nodes {
			outputHuman("  [%d] %s (%s, level %d)\n", n.ID, n.Title, n.Label, n.Level)
		}
		for _, e := range data.Edges {
			outputHuman("  %d -> %d  %s\n", e.From, e.To, e.Title)
		}
		return nil
	}
	return outputJSON(data)
}
