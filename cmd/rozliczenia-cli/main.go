package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rozliczenia/internal/cli"
	"rozliczenia/internal/core"
	"rozliczenia/internal/export"
	"rozliczenia/internal/storage"
	"rozliczenia/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "rozliczenia-cli",
	Short:        "Administrative commands for the rozliczenia database",
	SilenceUsage: true,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install demo data if the database has never been seeded",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, blobs, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer blobs.Close()

		if err := st.SeedDemo(cmd.Context()); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		fmt.Println("Done. Existing data is never overwritten, the seed runs at most once.")
		return nil
	},
}

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "export-snapshot",
	Short: "Dump the full application snapshot as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, blobs, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer blobs.Close()

		data, err := json.MarshalIndent(st.Snapshot(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}

		if snapshotOut == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(snapshotOut, data, 0644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Printf("Snapshot written to %s\n", snapshotOut)
		return nil
	},
}

var (
	reportYear  int
	reportMonth int
	reportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the settlement report for a period as an XLSX file",
	Example: `  # Whole year
  rozliczenia-cli report --year 2024 -o rozliczenia-2024.xlsx

  # Single month, default output name
  rozliczenia-cli report --year 2024 --month 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportYear == 0 {
			return fmt.Errorf("--year is required")
		}
		if reportMonth < 0 || reportMonth > 12 {
			return fmt.Errorf("invalid month %d", reportMonth)
		}

		st, blobs, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer blobs.Close()

		p := core.Period{Year: reportYear, Month: reportMonth}
		out := reportOut
		if out == "" {
			out = export.FileName(p)
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()

		if err := export.WriteXLSX(f, st.Snapshot(), p); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", out)
		return nil
	},
}

// openStore loads the snapshot from the configured SQLite database. The CLI
// never publishes change events, it works on the database directly.
func openStore(ctx context.Context) (*store.Store, *storage.SQLiteStore, error) {
	logger := slog.Default()
	cfg := cli.LoadAndValidateConfig(logger)

	blobs, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", cfg.SQLiteDBPath, err)
	}

	st := store.New(blobs, nil, logger)
	if err := st.Open(ctx); err != nil {
		blobs.Close()
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	return st, blobs, nil
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "output", "o", "", "Write JSON to file instead of stdout")

	reportCmd.Flags().IntVar(&reportYear, "year", 0, "Report year (required)")
	reportCmd.Flags().IntVar(&reportMonth, "month", 0, "Report month, 0 selects the whole year")
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "Output file, defaults to Rozliczenia-<period>.xlsx")

	rootCmd.AddCommand(seedCmd, snapshotCmd, reportCmd)
}

func main() {
	cli.LoadEnvFile()
	cli.SetupLogger()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
