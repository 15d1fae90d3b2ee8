package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// StationFeature renders a found match as a GeoJSON point feature for map
// display. It returns false when the result is NotFound.
func StationFeature(season string, res MatchResult) (*geojson.Feature, bool) {
	if !res.Found {
		return nil, false
	}

	rec := res.Record
	pt := geom.NewPointFlat(geom.XY, []float64{rec.Longitude, rec.Latitude}).SetSRID(4326)

	return &geojson.Feature{
		Geometry: pt,
		Properties: map[string]any{
			"season":          season,
			"state":           rec.State,
			"county":          rec.County,
			"total_cycles":    rec.TotalCycles,
			"damaging_cycles": rec.DamagingCycles,
			"damaging_share":  rec.DamagingShare(),
			"distance_km":     res.DistanceKM,
		},
	}, true
}
