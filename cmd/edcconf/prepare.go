package main

import (
	"context"
	"fmt"

	"github.com/botswana-harvard/edc-configuration/internal/appconfig"
	"github.com/botswana-harvard/edc-configuration/internal/reconcile"
	"github.com/spf13/cobra"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Bring the configuration tables in line with a deployment file",
	Long: `Bring the configuration tables in line with a deployment file.

The file defaults to EDC_APP_CONFIG. Without a file only the default global
configuration is written. Rows that already exist are updated in place and
the whole run is one transaction.`,
	GroupID: "setup",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverAddr != "" {
			return fmt.Errorf("prepare works on the local store only; unset --server")
		}
		env, err := openLocal()
		if err != nil {
			return err
		}
		defer env.Close()

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = env.cfg.AppConfig
		}
		report, err := prepare(cmd.Context(), env, path)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), report.Event())
		}
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

// prepare loads the deployment file at path, or runs with defaults when path
// is empty, and reconciles the store against it.
func prepare(ctx context.Context, env *localEnv, path string) (*reconcile.Report, error) {
	app := &appconfig.AppConfiguration{}
	if path != "" {
		var err error
		if app, err = appconfig.Load(path, env.cfg.Time.Location); err != nil {
			return nil, err
		}
		logger.Info("loaded deployment file", "path", path)
	}
	return reconcile.New(env.store, env.conf, env.publisher, logger).Prepare(ctx, app)
}

func init() {
	prepareCmd.Flags().StringP("file", "f", "", "deployment file (default: EDC_APP_CONFIG)")
}
