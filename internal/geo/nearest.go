package geo

import (
	"github.com/sells-group/freezethaw-cli/internal/model"
)

// DefaultMaxKM is the default search radius for FindNearest.
const DefaultMaxKM = 50.0

// MatchResult is the outcome of a nearest-station search. When Found is false
// the other fields are zero.
type MatchResult struct {
	Found      bool                `json:"found" yaml:"found"`
	Record     model.StationRecord `json:"record" yaml:"record"`
	DistanceKM float64             `json:"distance_km" yaml:"distance_km"`
}

// NotFound is the result when no candidate lies within the search radius.
var NotFound = MatchResult{}

// FindNearest returns the candidate closest to (lat, lon) if it lies within
// maxKM. Ties keep the earliest candidate. The scan is linear.
func FindNearest(lat, lon float64, candidates []model.StationRecord, maxKM float64) MatchResult {
	if len(candidates) == 0 {
		return NotFound
	}

	best := 0
	bestKM := HaversineKM(lat, lon, candidates[0].Latitude, candidates[0].Longitude)
	for i := 1; i < len(candidates); i++ {
		d := HaversineKM(lat, lon, candidates[i].Latitude, candidates[i].Longitude)
		if d < bestKM {
			best = i
			bestKM = d
		}
	}

	if bestKM > maxKM {
		return NotFound
	}

	return MatchResult{
		Found:      true,
		Record:     candidates[best],
		DistanceKM: bestKM,
	}
}
