package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/freezethaw-cli/internal/geo"
	"github.com/sells-group/freezethaw-cli/internal/lookup"
)

// Output formats for the query command.
const (
	formatText    = "text"
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatGeoJSON = "geojson"
)

var errNoStation = eris.New("no station found")

var (
	queryState  string
	queryLat    float64
	queryLon    float64
	querySeason string
	queryMaxKM  float64
	queryFormat string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find the nearest monitoring station and its freeze-thaw cycles",
	Example: `  freezethaw query --state Colorado --lat 40.0 --lon -105.3
  freezethaw query --state iowa --lat 41.6 --lon -93.6 --season 2023-2024 --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}
		switch queryFormat {
		case formatText, formatJSON, formatYAML, formatGeoJSON:
		default:
			return eris.Errorf("unknown format %q (want text, json, yaml or geojson)", queryFormat)
		}

		svc := newService(nil)
		resp, err := svc.Query(cmd.Context(), lookup.Request{
			State:     queryState,
			Latitude:  queryLat,
			Longitude: queryLon,
			Season:    querySeason,
			MaxKM:     queryMaxKM,
		})
		if err != nil {
			return err
		}

		return renderResponse(cmd.OutOrStdout(), resp, queryFormat)
	},
}

func renderResponse(w io.Writer, resp *lookup.Response, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "encode json")
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return nil
	case formatGeoJSON:
		feature, ok := geo.StationFeature(resp.Season, resp.Match)
		if !ok {
			return eris.Wrapf(errNoStation, "status %s", resp.Status)
		}
		body, err := feature.MarshalJSON()
		if err != nil {
			return eris.Wrap(err, "encode geojson")
		}
		_, err = fmt.Fprintln(w, string(body))
		return err
	default:
		formatQueryText(w, resp)
		return nil
	}
}

// formatQueryText writes a human-readable lookup result.
func formatQueryText(w io.Writer, resp *lookup.Response) {
	switch resp.Status {
	case lookup.StatusNoData:
		fmt.Fprintf(w, "No data available for season %s.\n", displaySeason(resp.Season))

	case lookup.StatusNoState:
		fmt.Fprintf(w, "No data found for state: %s\n", resp.State)
		if len(resp.AvailableStates) > 0 {
			fmt.Fprintf(w, "Available states: %s\n", strings.Join(resp.AvailableStates, ", "))
		}

	case lookup.StatusNoMatch:
		fmt.Fprintf(w, "No monitoring stations found within %.0f km of the specified coordinates in %s.\n", resp.MaxKM, resp.State)
		fmt.Fprintf(w, "\nAvailable monitoring stations in %s:\n", resp.State)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COUNTY\tLATITUDE\tLONGITUDE\tTOTAL\tDAMAGING")
		for _, r := range resp.Stations {
			fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.0f\t%.0f\n", r.County, r.Latitude, r.Longitude, r.TotalCycles, r.DamagingCycles)
		}
		tw.Flush() //nolint:errcheck

	case lookup.StatusFound:
		rec := resp.Match.Record
		fmt.Fprintf(w, "Nearest monitoring station for season %s\n\n", resp.Season)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "County:\t%s\n", rec.County)
		fmt.Fprintf(tw, "State:\t%s\n", rec.State)
		fmt.Fprintf(tw, "Distance:\t%.2f km\n", resp.Match.DistanceKM)
		fmt.Fprintf(tw, "Station latitude:\t%.6f\n", rec.Latitude)
		fmt.Fprintf(tw, "Station longitude:\t%.6f\n", rec.Longitude)
		fmt.Fprintf(tw, "Total freeze-thaw cycles:\t%.0f\n", rec.TotalCycles)
		fmt.Fprintf(tw, "Damaging freeze-thaw cycles:\t%.0f\n", rec.DamagingCycles)
		tw.Flush() //nolint:errcheck
		fmt.Fprintf(w, "\n%.1f%% of freeze-thaw cycles at this location are classified as potentially damaging.\n", resp.DamagingShare)
	}
}

func init() {
	queryCmd.Flags().StringVar(&queryState, "state", "", "state name (case-insensitive)")
	queryCmd.Flags().Float64Var(&queryLat, "lat", 0, "latitude in decimal degrees")
	queryCmd.Flags().Float64Var(&queryLon, "lon", 0, "longitude in decimal degrees")
	queryCmd.Flags().StringVar(&querySeason, "season", "", "season in YYYY-YYYY form (default latest)")
	queryCmd.Flags().Float64Var(&queryMaxKM, "max-km", 0, "search radius in km (default from config)")
	queryCmd.Flags().StringVar(&queryFormat, "format", formatText, "output format: text, json, yaml or geojson")
	_ = queryCmd.MarkFlagRequired("state")
	_ = queryCmd.MarkFlagRequired("lat")
	_ = queryCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(queryCmd)
}
