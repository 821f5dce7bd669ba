package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"design-drop/internal/config"
	"design-drop/internal/logging"
	"design-drop/internal/logstore"
	"design-drop/internal/model"
	"design-drop/internal/notify"
	"design-drop/internal/server"
)

var configFile string

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "design-drop",
	Short:        "Design upload intake service",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Print the submission log as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := logstore.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("opening log store: %w", err)
		}
		defer store.Close()

		records, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading log: %w", err)
		}
		return writeRecords(cmd.OutOrStdout(), records)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Upload one snapshot of the submission log to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Backup.Enabled {
			return fmt.Errorf("backup is not enabled")
		}

		store, err := logstore.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("opening log store: %w", err)
		}
		defer store.Close()

		mc, err := logstore.NewMinioClient(cmd.Context(), cfg.Backup)
		if err != nil {
			return fmt.Errorf("connecting to object storage: %w", err)
		}

		b := logstore.NewBackup(store, mc, cfg.Backup.Bucket, cfg.Backup.Prefix, cfg.Backup.Interval, nil)
		key, n, err := b.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d records to %s/%s\n", n, cfg.Backup.Bucket, key)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./configs/config.yaml or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, recordsCmd, snapshotCmd)
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Configure(cfg.Log.Level, cfg.LogFormat()); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := logstore.Open(ctx, cfg.Store)
	if err != nil {
		logging.Error("open log store failed", map[string]any{"driver": cfg.Store.Driver}, err)
		return err
	}
	defer store.Close()
	logging.Info("log store ready", map[string]any{"driver": cfg.Store.Driver})

	if cfg.Backup.Enabled {
		mc, err := logstore.NewMinioClient(ctx, cfg.Backup)
		if err != nil {
			logging.Error("connect to object storage failed", map[string]any{"endpoint": cfg.Backup.Endpoint}, err)
			return err
		}
		backup := logstore.NewBackup(store, mc, cfg.Backup.Bucket, cfg.Backup.Prefix, cfg.Backup.Interval, model.RealClock{})
		backup.Start(ctx)
		defer backup.Stop()
	}

	mailer, err := notify.NewMailer(ctx, cfg.Mail)
	if err != nil {
		logging.Error("configure mailer failed", map[string]any{"provider": cfg.Mail.Provider}, err)
		return err
	}
	notifier := notify.New(mailer, cfg.Notify)

	srv := server.New(cfg, store, notifier, model.RealClock{})
	return srv.Run(ctx)
}

func writeRecords(w io.Writer, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
