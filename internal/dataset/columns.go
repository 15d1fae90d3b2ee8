package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/freezethaw-cli/internal/model"
)

// columnSynonyms maps lowercased, trimmed header text to canonical column names.
var columnSynonyms = map[string]string{
	"state": model.ColState,

	"county": model.ColCounty,

	"lat":      model.ColLatitude,
	"latitude": model.ColLatitude,

	"lon":       model.ColLongitude,
	"lng":       model.ColLongitude,
	"longitude": model.ColLongitude,

	"total_freeze_thaw_cycles": model.ColTotalCycles,
	"total_cycles":             model.ColTotalCycles,
	"total":                    model.ColTotalCycles,
	"total freeze thaw cycles": model.ColTotalCycles,

	"damaging_freeze_thaw_cycles": model.ColDamagingCycles,
	"damaging_cycles":             model.ColDamagingCycles,
	"damaging":                    model.ColDamagingCycles,
	"damaging freeze thaw cycles": model.ColDamagingCycles,
}

// normalizeHeader lowercases and trims a header cell for synonym lookup.
func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mapColumns builds a canonical column name → index map from a header row.
// Unrecognized headers are dropped. When two headers map to the same
// canonical column the first one wins.
func mapColumns(header []string) map[string]int {
	idx := make(map[string]int, len(model.CanonicalColumns))
	for i, col := range header {
		canonical, ok := columnSynonyms[normalizeHeader(col)]
		if !ok {
			continue
		}
		if _, dup := idx[canonical]; dup {
			continue
		}
		idx[canonical] = i
	}
	return idx
}

// missingColumns returns the canonical columns absent from idx, in canonical order.
func missingColumns(idx map[string]int) []string {
	var missing []string
	for _, col := range model.CanonicalColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// getCol returns the trimmed cell for a canonical column, or "" when the row is short.
func getCol(record []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseNumber coerces a cell to a finite float64. ok is false for blank,
// non-numeric, NaN and infinite values.
func parseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
