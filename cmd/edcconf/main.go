package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/botswana-harvard/edc-configuration/internal/config"
	"github.com/botswana-harvard/edc-configuration/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	transport  string
	authToken  string
	jsonOutput bool
	noColor    bool

	logger = slog.Default()
)

func defaultServer() string {
	return os.Getenv("EDC_SERVER")
}

var rootCmd = &cobra.Command{
	Use:   "edcconf <command>",
	Short: "Manage EDC global configuration",
	Long: `edcconf reads and writes the EDC global configuration table, prepares it
from a deployment file and serves it over HTTP and gRPC.

Without --server, commands open the store named by EDC_DATABASE_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := config.LoadLogLevel()
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		ui.Setup(noColor || jsonOutput)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "server address; HTTP URL or gRPC host:port (default: use the local store)")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("EDC_AUTH_TOKEN"), "bearer token for the server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "attributes", Title: "Attributes:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Attributes
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(convertCmd)

	// Setup
	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(syncCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: "+err.Error()))
		os.Exit(1)
	}
}
