package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/spf13/cobra"
)

func newSearchCommand() *cobra.Command {
	var (
		category string
		year     string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search one category's upstream catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !providers.IsKnown(models.Category(category)) {
				return fmt.Errorf("unknown category %q", category)
			}
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			dispatcher, err := initializeCatalog(cfg)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			items := dispatcher.Search(context.Background(), query, models.Category(category), controllers.SearchOptions{
				Limit: limit,
				Year:  year,
			})
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryMovie), "category to search")
	cmd.Flags().StringVarP(&year, "year", "y", "", "year filter: 2021, 1990s or decade-1990")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results")
	return cmd
}

func newDiscoverCommand() *cobra.Command {
	var (
		year  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "discover <category>",
		Short: "Show trending or curated items for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := models.Category(args[0])
			if !providers.IsKnown(category) {
				return fmt.Errorf("unknown category %q", args[0])
			}
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			dispatcher, err := initializeCatalog(cfg)
			if err != nil {
				return err
			}

			items := dispatcher.Discover(context.Background(), category, controllers.DiscoverOptions{
				Year:  year,
				Limit: limit,
			})
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&year, "year", "y", "", "year filter: 2021, 1990s or decade-1990")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results")
	return cmd
}

func printItems(w io.Writer, items []models.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	for i, item := range items {
		line := fmt.Sprintf("%2d. %s", i+1, item.Name)
		if item.Year != nil {
			line += fmt.Sprintf(" (%d)", *item.Year)
		}
		if item.Subtitle != "" {
			line += " - " + item.Subtitle
		}
		fmt.Fprintf(w, "%s  [%s]\n", line, item.ID)
	}
}
