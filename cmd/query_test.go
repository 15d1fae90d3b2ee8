package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/freezethaw-cli/internal/geo"
	"github.com/sells-group/freezethaw-cli/internal/lookup"
	"github.com/sells-group/freezethaw-cli/internal/model"
)

func TestFormatQueryText(t *testing.T) {
	boulder := model.StationRecord{State: "Colorado", County: "Boulder", Latitude: 40, Longitude: -105.27, TotalCycles: 10, DamagingCycles: 3}

	tests := []struct {
		name string
		resp lookup.Response
		want []string
	}{
		{
			name: "found",
			resp: lookup.Response{
				Status: lookup.StatusFound, Season: "2024-2025", State: "Colorado",
				Match:         geo.MatchResult{Found: true, Record: boulder, DistanceKM: 2.5554},
				DamagingShare: 30,
			},
			want: []string{"season 2024-2025", "Boulder", "2.56 km", "40.000000", "-105.270000", "30.0%"},
		},
		{
			name: "no match",
			resp: lookup.Response{
				Status: lookup.StatusNoMatch, State: "Colorado", MaxKM: 50,
				Stations: []model.StationRecord{boulder},
			},
			want: []string{"within 50 km", "in Colorado", "COUNTY", "Boulder"},
		},
		{
			name: "no state",
			resp: lookup.Response{Status: lookup.StatusNoState, State: "Iowa", AvailableStates: []string{"Colorado", "Utah"}},
			want: []string{"No data found for state: Iowa", "Available states: Colorado, Utah"},
		},
		{
			name: "no data",
			resp: lookup.Response{Status: lookup.StatusNoData},
			want: []string{"No data available for season latest"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatQueryText(&buf, &tt.resp)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestDisplaySeason(t *testing.T) {
	assert.Equal(t, "latest", displaySeason(""))
	assert.Equal(t, "2024-2025", displaySeason("2024-2025"))
}
