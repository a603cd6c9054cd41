package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/unclebandit/mailleopard-backend/internal/app"
	"github.com/unclebandit/mailleopard-backend/internal/config"
	"github.com/unclebandit/mailleopard-backend/internal/db"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

var rootCmd = &cobra.Command{
	Use:           "campaignctl",
	Short:         "Operate email campaigns from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback the last migration",
	RunE:  runMigrateDown,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runMigrateStatus,
}

var sendCmd = &cobra.Command{
	Use:   "send [campaign]",
	Short: "Send a campaign to every contact on its lists",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

var previewCmd = &cobra.Command{
	Use:   "preview [campaign] [email]",
	Short: "Render a campaign for one contact",
	Args:  cobra.ExactArgs(2),
	RunE:  runPreview,
}

var importCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import contacts from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export contacts as CSV",
	RunE:  runExport,
}

var statsCmd = &cobra.Command{
	Use:   "stats [campaign]",
	Short: "Show campaign statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent email log entries",
	RunE:  runLogs,
}

var cleanupLogsCmd = &cobra.Command{
	Use:   "cleanup-logs",
	Short: "Delete old email log entries",
	RunE:  runCleanupLogs,
}

var (
	attachments []string
	async       bool
	fieldMap    string
	listName    string
	outFile     string
	logLimit    int
	logStatus   string
	logDays     int
)

func init() {
	sendCmd.Flags().StringSliceVarP(&attachments, "attach", "a", nil, "file to attach (repeatable)")
	sendCmd.Flags().BoolVar(&async, "async", false, "enqueue the send for a worker instead of running it here")
	importCmd.Flags().StringVarP(&fieldMap, "map", "m", "", `column mapping, e.g. "Email:email,First Name:first_name"`)
	importCmd.MarkFlagRequired("map")
	exportCmd.Flags().StringVarP(&listName, "list", "l", "", "only export members of this contact list")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	logsCmd.Flags().IntVar(&logLimit, "limit", service.DefaultLogLimit, "maximum entries to show")
	logsCmd.Flags().StringVar(&logStatus, "status", "", "only show entries with this status")
	cleanupLogsCmd.Flags().IntVar(&logDays, "days", service.DefaultLogRetentionDays, "delete entries older than this many days")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd, sendCmd, previewCmd, importCmd, exportCmd, statsCmd, logsCmd, cleanupLogsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.New(cfg, logger.New(cfg.Log.Level, "text"))
}

func getMigrator() (*migrate.Migrate, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	m, err := db.Migrator(database)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return m, func() { database.Close() }, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	m, closeDB, err := getMigrator()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	m, closeDB, err := getMigrator()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "rollback completed successfully")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	m, closeDB, err := getMigrator()
	if err != nil {
		return err
	}
	defer closeDB()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations have been applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\nDirty: %v\n", version, dirty)
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if async {
		if a.InProcessQueue() {
			return errors.New("--async needs a message broker: set CAMPAIGN_AMQP_URL")
		}
		if err := a.Campaigns.EnqueueSend(ctx, args[0], attachments); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "campaign %q queued\n", args[0])
		return nil
	}

	result, err := a.Campaigns.SendCampaign(ctx, args[0], attachments)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Campaigns.RenderPreview(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), p)
}

func runImport(cmd *cobra.Command, args []string) error {
	mapping, err := service.ParseFieldMapping(fieldMap)
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Contacts.ImportContacts(cmd.Context(), f, mapping)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d contacts\n", n)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = cmd.OutOrStdout()
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := a.Contacts.ExportContacts(cmd.Context(), w, listName)
	if err != nil {
		return err
	}
	if outFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d contacts to %s\n", n, outFile)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	details, err := a.Campaigns.GetCampaignStats(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), details)
}

func runLogs(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	logs, err := a.Logs.GetEmailLogs(cmd.Context(), logLimit, logStatus)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), logs)
}

func runCleanupLogs(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Logs.CleanupOldLogs(cmd.Context(), logDays)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d log entries\n", n)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
