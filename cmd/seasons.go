package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/freezethaw-cli/internal/model"
)

var seasonsCmd = &cobra.Command{
	Use:   "seasons",
	Short: "List seasons with workbook data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}

		seasons, err := newLoader().Seasons()
		if err != nil {
			return eris.Wrap(err, "seasons")
		}
		if len(seasons) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No season files found in %s.\n", cfg.Data.Dir)
			return nil
		}
		for _, s := range seasons {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var summarySeason string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show record, state and county counts for a season",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}

		tbl := newLoader().Load(cmd.Context(), summarySeason)
		if tbl.Empty() {
			return eris.Errorf("no data found for season %q", displaySeason(tbl.Season))
		}
		formatSummary(cmd.OutOrStdout(), tbl.Summary())
		return nil
	},
}

func formatSummary(w io.Writer, s model.TableSummary) {
	fmt.Fprintf(w, "Season:   %s\n", s.Season)
	fmt.Fprintf(w, "Records:  %d\n", s.Records)
	fmt.Fprintf(w, "States:   %d\n", s.States)
	fmt.Fprintf(w, "Counties: %d\n", s.Counties)
}

// displaySeason names the season in messages; empty means the latest.
func displaySeason(season string) string {
	if season == "" {
		return "latest"
	}
	return season
}

func init() {
	summaryCmd.Flags().StringVar(&summarySeason, "season", "", "season in YYYY-YYYY form (default latest)")
	rootCmd.AddCommand(seasonsCmd)
	rootCmd.AddCommand(summaryCmd)
}
