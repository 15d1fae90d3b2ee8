// Package dataset discovers seasonal freeze-thaw workbooks and loads them into
// validated station tables.
package dataset

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rotisserie/eris"
)

// File naming convention for season workbooks.
const (
	FilePrefix = "Predicted_Freeze_Thaw_Cycles_"
	FileExt    = ".xlsx"
)

var (
	seasonPattern = regexp.MustCompile(`\d{4}-\d{4}`)
	seasonExact   = regexp.MustCompile(`^\d{4}-\d{4}$`)
)

// FileName returns the workbook name for a season, e.g.
// "Predicted_Freeze_Thaw_Cycles_2024-2025.xlsx".
func FileName(season string) string {
	return FilePrefix + season + FileExt
}

// ValidSeason reports whether s has the YYYY-YYYY form.
func ValidSeason(s string) bool {
	return seasonExact.MatchString(s)
}

// Seasons scans dir for season workbooks and returns the distinct season
// identifiers in ascending order. Files that do not follow the naming
// convention are ignored.
func Seasons(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read dir %s", dir)
	}

	seen := make(map[string]bool)
	var seasons []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(FilePrefix+"*"+FileExt, e.Name()); !ok {
			continue
		}
		season := seasonPattern.FindString(e.Name())
		if season == "" || seen[season] {
			continue
		}
		seen[season] = true
		seasons = append(seasons, season)
	}
	sort.Strings(seasons)
	return seasons, nil
}

// resolveFile finds the workbooks in dir whose name is exactly FileName(season).
func resolveFile(dir, season string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read dir %s", dir)
	}

	want := FileName(season)
	var paths []string
	for _, e := range entries {
		if e.IsDir() || e.Name() != want {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
