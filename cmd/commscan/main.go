package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Napageneral/commscan/internal/apps"
	"github.com/Napageneral/commscan/internal/casedb"
	"github.com/Napageneral/commscan/internal/config"
	"github.com/Napageneral/commscan/internal/logging"
	"github.com/Napageneral/commscan/internal/scan"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "commscan",
		Short: "Commscan - Mobile communication artifact extraction into a case database",
	}

	var (
		workers   int
		caseDB    string
		analyzers []string
	)

	scanCmd := &cobra.Command{
		Use:   "scan <source-root>",
		Short: "Scan an extracted data-source directory for communication artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if caseDB != "" {
				cfg.CaseDBPath = caseDB
			}
			return runScan(cfg, args[0], analyzers)
		},
	}
	scanCmd.Flags().IntVar(&workers, "workers", 0, "concurrent analyzers (default from config)")
	scanCmd.Flags().StringVar(&caseDB, "case-db", "", "case database path (default from config)")
	scanCmd.Flags().StringSliceVar(&analyzers, "analyzer", nil, "run only the named analyzers")

	appsCmd := &cobra.Command{
		Use:   "apps",
		Short: "List the analyzer catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			var names []string
			for _, a := range apps.Catalog() {
				names = append(names, a.Name())
			}
			return printJSON(names)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print artifact counts from the case database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if caseDB != "" {
				cfg.CaseDBPath = caseDB
			}
			db, err := casedb.Open(cfg.CaseDBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			stats, err := db.ReadStats()
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	statsCmd.Flags().StringVar(&caseDB, "case-db", "", "case database path (default from config)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(map[string]interface{}{
				"version": version,
				"go":      "1.23",
			})
		},
	}

	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Print commscan application paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"app_dir":      cfg.AppDir,
				"case_db_path": cfg.CaseDBPath,
				"config_path":  cfg.AppDir + "/config.yaml",
			})
		},
	}

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pathsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cfg *config.Config, sourceRoot string, names []string) error {
	if _, err := os.Stat(sourceRoot); err != nil {
		return fmt.Errorf("source root: %w", err)
	}

	log, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	catalog, err := apps.ByName(names)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.AppDir, 0o755); err != nil {
		return err
	}
	sink, err := casedb.Open(cfg.CaseDBPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("scan starting",
		zap.String("source", sourceRoot),
		zap.String("case_db", cfg.CaseDBPath),
		zap.Int("workers", cfg.Workers),
		zap.Int("analyzers", len(catalog)))

	sc := scan.NewContext(ctx, log, sink, scan.NewDirLocator(sourceRoot))
	sc.EmitNameOnlyContacts = cfg.EmitNameOnlyContacts

	summary := scan.NewOrchestrator(catalog, scan.Options{Workers: cfg.Workers}).RunWith(sc)

	log.Info("scan finished",
		zap.Int("analyzers_run", summary.AnalyzersRun),
		zap.Int("contacts", summary.Contacts),
		zap.Int("messages", summary.Messages),
		zap.Int("call_logs", summary.CallLogs),
		zap.Int("geo_points", summary.GeoPoints),
		zap.Int("geo_routes", summary.GeoRoutes),
		zap.Bool("cancelled", summary.Cancelled))

	if len(summary.Errors) == 0 {
		fmt.Printf("%d analyzers run, %d records, no errors\n", summary.AnalyzersRun, summary.Records())
		return nil
	}
	fmt.Printf("%d analyzers run, %d records, %d errors:\n", summary.AnalyzersRun, summary.Records(), len(summary.Errors))
	for _, e := range summary.Errors {
		fmt.Printf("  - %s\n", e)
	}
	return nil
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
