// Package lookup answers station queries: it loads a season table, narrows it
// to a state, and finds the nearest station to a coordinate.
package lookup

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/freezethaw-cli/internal/model"
)

// NormalizeState trims and title-cases a user-entered state name,
// e.g. "  new mexico" → "New Mexico".
func NormalizeState(state string) string {
	return cases.Title(language.English).String(strings.TrimSpace(state))
}

// FilterByState returns the records whose State contains the normalized state
// name, ignoring case. Record order is preserved.
func FilterByState(records []model.StationRecord, state string) []model.StationRecord {
	fold := cases.Fold()
	needle := fold.String(NormalizeState(state))
	if needle == "" {
		return nil
	}

	var out []model.StationRecord
	for _, r := range records {
		if strings.Contains(fold.String(r.State), needle) {
			out = append(out, r)
		}
	}
	return out
}
