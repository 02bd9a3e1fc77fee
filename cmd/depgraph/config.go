package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/depgraph/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  depgraph config                         # Show all config
  depgraph config max-depth               # Get specific value
  depgraph config max-depth 3             # Set value
  depgraph config cache-path ~/papers.db  # Set content cache location

Keys:
  cache-path       Path to the SQLite content cache
  max-depth        Maximum recursion depth for graph building
  listen-addr      HTTP listen address for the serve command
  unpaywall-email  Contact email sent with Unpaywall requests

API keys are read from the environment or a .env file (S2_API_KEY,
GEMINI_API_KEY, CORE_API_KEY) and are not managed by this command.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	CachePath      string `json:"cache_path"`
	MaxDepth       int    `json:"max_depth"`
	ListenAddr     string `json:"listen_addr"`
	UnpaywallEmail string `json:"unpaywall_email"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("cache-path:      %s\n", cfg.CachePath)
			fmt.Printf("max-depth:       %d\n", cfg.MaxDepth)
			fmt.Printf("listen-addr:     %s\n", cfg.ListenAddr)
			fmt.Printf("unpaywall-email: %s\n", cfg.UnpaywallEmail)
		} else {
			outputJSON(ConfigResponse{
				CachePath:      cfg.CachePath,
				MaxDepth:       cfg.MaxDepth,
				ListenAddr:     cfg.ListenAddr,
				UnpaywallEmail: cfg.UnpaywallEmail,
			})
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		var value string
		switch key {
		case "cache-path":
			value = cfg.CachePath
		case "max-depth":
			value = strconv.Itoa(cfg.MaxDepth)
		case "listen-addr":
			value = cfg.ListenAddr
		case "unpaywall-email":
			value = cfg.UnpaywallEmail
		default:
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	switch key {
	case "cache-path":
		cfg.CachePath = config.ExpandTilde(value)
	case "max-depth":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 0 {
			exitWithError(ExitError, "max-depth must be a non-negative integer, got %q", value)
		}
		cfg.MaxDepth = depth
	case "listen-addr":
		cfg.ListenAddr = value
	case "unpaywall-email":
		cfg.UnpaywallEmail = value
	default:
		exitWithError(ExitError, "unknown configuration key: %s", args[0])
	}

	if err := cfg.Save(); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}

// normalizeKey converts key formats (max-depth, max_depth) to a consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
