package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/optibench/internal/modules/archive"
)

var archivePrefix string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Mirror the data directory to an S3-compatible bucket",
	Long: `Pushes or pulls the whole data directory (histories, results index, run
catalog, report sources) against the configured bucket.

The bucket, region, endpoint and credentials come from the
OPTIBENCH_ARCHIVE_* environment variables.`,
}

var archivePushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the data directory to the bucket",
	RunE:  runArchivePush,
}

var archivePullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the data directory from the bucket",
	RunE:  runArchivePull,
}

func init() {
	archiveCmd.PersistentFlags().StringVar(&archivePrefix, "prefix", "optibench",
		"Key prefix inside the bucket")
	archiveCmd.AddCommand(archivePushCmd)
	archiveCmd.AddCommand(archivePullCmd)
}

func runArchivePush(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := archive.New(ctx, cfg.Archive, log)
	if err != nil {
		return err
	}

	uploaded, err := client.Push(ctx, cfg.DataDir, archivePrefix)
	if err != nil {
		return err
	}
	log.Info().Int("files", uploaded).Msg("Push finished")
	return nil
}

func runArchivePull(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := archive.New(ctx, cfg.Archive, log)
	if err != nil {
		return err
	}

	downloaded, err := client.Pull(ctx, archivePrefix, cfg.DataDir)
	if err != nil {
		return err
	}
	log.Info().Int("files", downloaded).Msg("Pull finished")
	return nil
}
