package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/client"
	"github.com/alfredjeanlab/devsim/internal/ui"
)

var (
	serverURL  string
	jsonOutput bool
	noColor    bool
	verbose    bool

	devsimClient client.DevsimClient
	logger       *slog.Logger
)

func defaultServer() string {
	if s := os.Getenv("DEVSIM_SERVER"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:5000"
}

// normalizeServerURL adds a scheme to bare host:port values.
func normalizeServerURL(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	return s
}

var rootCmd = &cobra.Command{
	Use:          "devsim <command>",
	Short:        "CLI for the DEVS simulation backend",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		devsimClient = client.NewHTTPClient(normalizeServerURL(serverURL))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if devsimClient != nil {
			devsimClient.Close()
		}
	},
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if noColor || !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "devsim server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "projects", Title: "Projects:"},
		&cobra.Group{ID: "simulation", Title: "Simulation:"},
		&cobra.Group{ID: "chat", Title: "Assistant:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Projects
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(graphCmd)

	// Simulation
	rootCmd.AddCommand(simulateCmd)

	// Assistant
	rootCmd.AddCommand(chatCmd)

	// System
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
