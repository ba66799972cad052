package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/spf13/cobra"
)

func newImportCommand() *cobra.Command {
	var (
		category string
		device   string
		noMatch  bool
	)

	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Import a watched-history CSV (Letterboxd export or title,year,rating) into a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !providers.IsKnown(models.Category(category)) {
				return fmt.Errorf("unknown category %q", category)
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			entries, err := controllers.ParseWatchedCSV(file)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			importer, cleanup, err := initializeImporter(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			defer importer.Sessions.Close()

			session, err := importer.Sessions.Get(device, "")
			if err != nil {
				return err
			}
			pool, err := session.Store.ImportWatched(models.Category(category), entries)
			if err != nil {
				return err
			}

			resolved := 0
			if !noMatch {
				resolved = importer.Matcher.MatchPending(context.Background(), session.Store)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Parsed %d entries, pool now holds %d\n", len(entries), len(pool))
			if !noMatch {
				fmt.Fprintf(out, "Matched %d, %d still pending\n", resolved, len(session.Store.PendingWatched()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryMovie), "category of the imported titles")
	cmd.Flags().StringVarP(&device, "device", "d", "", "device id that owns the watched pool")
	cmd.Flags().BoolVar(&noMatch, "no-match", false, "skip matching entries against the upstream catalog")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}
