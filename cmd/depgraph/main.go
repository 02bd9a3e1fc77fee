// Package main provides the depgraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "depgraph",
	Short: "Mathematical dependency graphs for research papers",
	Long: `depgraph builds citation dependency graphs for research papers.

Starting from a DOI or arXiv identifier, it fetches the paper and its
references from Semantic Scholar, retrieves full text where available
(open-access PDFs, arXiv, Unpaywall, CORE), and asks an LLM which cited
works the paper genuinely depends on mathematically. The result is a
graph of papers connected by dependency edges, each annotated with the
specific theorems or lemmas that are used.

Commands output JSON by default for AI agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for S2_API_KEY, GEMINI_API_KEY, CORE_API_KEY)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
