package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/depgraph/internal/config"
	"github.com/matsen/depgraph/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dependency graph HTTP server",
	Long: `Run an HTTP server exposing paper analysis.

POST /analyze_paper with {"doi": "<identifier>"} returns the dependency
graph for that paper as JSON nodes and edges.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	st, err := newStack(cmd.Context(), cfg, -1)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer st.Close()

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(st.builder, st.provider, st.log)
	st.log.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, srv.Routes())
}
