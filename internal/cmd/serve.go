package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpatrickfarrell/jat/internal/web"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	Long: `Start the jat dashboard.

The server lists tmux sessions, resolves each agent's activity state
from its latest signal, and serves the dashboard page, the JSON API
under /api/, and live state updates over /ws.

Example:
  jat serve                          # listen on the configured address
  jat serve --listen 0.0.0.0:8844    # listen on all interfaces`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	server, err := web.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("starting dashboard: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	fmt.Printf("jat dashboard at http://%s\n", cfg.Listen)
	fmt.Println("Press Ctrl+C to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
