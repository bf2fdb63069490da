package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/botswana-harvard/edc-configuration/internal/config"
	edcsync "github.com/botswana-harvard/edc-configuration/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the configuration table as JSONL",
	GroupID: "setup",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openLocal()
		if err != nil {
			return err
		}
		defer env.Close()

		out, _ := cmd.Flags().GetString("out")
		var w io.Writer = cmd.OutOrStdout()
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := edcsync.ExportJSONL(cmd.Context(), env.store, w); err != nil {
			return err
		}
		if out != "" && out != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", out)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export once to the configured sync destinations",
	Long: `Export once to the configured sync destinations.

Destinations are configured the same way as for serve: EDC_SYNC_S3_BUCKET
enables S3 and EDC_SYNC_GIT_REPO enables a git working copy.`,
	GroupID: "setup",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openLocal()
		if err != nil {
			return err
		}
		defer env.Close()

		dests, err := syncDestinations(cmd.Context(), env.cfg)
		if err != nil {
			return err
		}
		if len(dests) == 0 {
			return fmt.Errorf("no sync destinations configured (set EDC_SYNC_S3_BUCKET or EDC_SYNC_GIT_REPO)")
		}
		if err := edcsync.NewScheduler(env.store, dests, 0, logger).SyncNow(cmd.Context()); err != nil {
			return err
		}
		for _, d := range dests {
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %s\n", d.Name())
		}
		return nil
	},
}

// syncDestinations builds the destinations enabled in cfg.
func syncDestinations(ctx context.Context, cfg *config.Config) ([]edcsync.Destination, error) {
	var dests []edcsync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := edcsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("creating S3 sync destination: %w", err)
		}
		dests = append(dests, s3Dest)
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, edcsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
	}
	return dests, nil
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "output file (default: stdout)")
}
