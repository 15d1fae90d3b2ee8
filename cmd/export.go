package main

import (
	"fmt"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/freezethaw-cli/internal/model"
)

var (
	exportSeason string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a season's validated station table as Parquet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}

		tbl := newLoader().Load(cmd.Context(), exportSeason)
		if tbl.Empty() {
			return eris.Errorf("no data found for season %q", displaySeason(tbl.Season))
		}

		out := exportOut
		if out == "" {
			out = tbl.Season + ".parquet"
		}
		if err := writeParquet(out, tbl); err != nil {
			return err
		}

		zap.L().Info("exported season table",
			zap.String("season", tbl.Season),
			zap.String("file", out),
			zap.Int("records", tbl.Len()),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records for season %s to %s\n", tbl.Len(), tbl.Season, out)
		return nil
	},
}

func writeParquet(path string, tbl *model.SeasonTable) error {
	if err := parquet.WriteFile(filepath.Clean(path), tbl.Records); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportSeason, "season", "", "season in YYYY-YYYY form (default latest)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default <season>.parquet)")
	rootCmd.AddCommand(exportCmd)
}
