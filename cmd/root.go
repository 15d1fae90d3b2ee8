package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/freezethaw-cli/internal/config"
	"github.com/sells-group/freezethaw-cli/internal/dataset"
	"github.com/sells-group/freezethaw-cli/internal/fetcher"
	"github.com/sells-group/freezethaw-cli/internal/lookup"
	"github.com/sells-group/freezethaw-cli/internal/monitoring"
)

var (
	cfg     *config.Config
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "freezethaw",
	Short: "Look up predicted freeze-thaw cycles for a location",
	Long:  "Loads seasonal freeze-thaw workbooks and reports total and damaging cycles at the monitoring station nearest to a coordinate.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if dataDir != "" {
			c.Data.Dir = dataDir
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding season workbooks (default from config)")
}

// newLoader builds a dataset loader from the active config.
func newLoader() *dataset.Loader {
	return dataset.NewLoader(cfg.Data.Dir, dataset.WithSheet(fetcher.SheetOptions{
		SheetIndex: cfg.Data.SheetIndex,
		SheetName:  cfg.Data.SheetName,
	}))
}

// newService wires the loader, table cache and metrics into a lookup service.
func newService(metrics *monitoring.Metrics) *lookup.Service {
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	cache := lookup.NewTableCache(newLoader(), ttl, lookup.WithCacheMetrics(metrics))
	return lookup.NewService(cache,
		lookup.WithDefaultMaxKM(cfg.Query.MaxKM),
		lookup.WithMetrics(metrics),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
