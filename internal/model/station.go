package model

import "sort"

// Canonical column names for a season workbook.
const (
	ColState          = "State"
	ColCounty         = "County"
	ColLatitude       = "Latitude"
	ColLongitude      = "Longitude"
	ColTotalCycles    = "Total_Freeze_Thaw_Cycles"
	ColDamagingCycles = "Damaging_Freeze_Thaw_Cycles"
)

// CanonicalColumns lists the required columns in workbook order.
var CanonicalColumns = []string{
	ColState,
	ColCounty,
	ColLatitude,
	ColLongitude,
	ColTotalCycles,
	ColDamagingCycles,
}

// StationRecord is one monitoring station's freeze-thaw statistics for a season.
// Counts are integer-valued but kept as float64 to match the workbook cells.
type StationRecord struct {
	State          string  `json:"state" yaml:"state" parquet:"state"`
	County         string  `json:"county" yaml:"county" parquet:"county"`
	Latitude       float64 `json:"latitude" yaml:"latitude" parquet:"latitude"`
	Longitude      float64 `json:"longitude" yaml:"longitude" parquet:"longitude"`
	TotalCycles    float64 `json:"total_cycles" yaml:"total_cycles" parquet:"total_cycles"`
	DamagingCycles float64 `json:"damaging_cycles" yaml:"damaging_cycles" parquet:"damaging_cycles"`
}

// DamagingShare returns damaging cycles as a percentage of total cycles.
func (r StationRecord) DamagingShare() float64 {
	if r.TotalCycles <= 0 {
		return 0
	}
	return r.DamagingCycles / r.TotalCycles * 100
}

// SeasonTable is the validated set of station records loaded for one season.
// Tables are built once per load and not modified afterwards.
type SeasonTable struct {
	Season  string          `json:"season" yaml:"season"`
	Source  string          `json:"source,omitempty" yaml:"source,omitempty"`
	Records []StationRecord `json:"records" yaml:"records"`
}

// EmptyTable returns a table with no records for the given season.
func EmptyTable(season string) *SeasonTable {
	return &SeasonTable{Season: season, Records: []StationRecord{}}
}

// Len returns the number of records.
func (t *SeasonTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Empty reports whether the table has no records.
func (t *SeasonTable) Empty() bool {
	return t.Len() == 0
}

// States returns the distinct state names, sorted.
func (t *SeasonTable) States() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var states []string
	for _, r := range t.Records {
		if !seen[r.State] {
			seen[r.State] = true
			states = append(states, r.State)
		}
	}
	sort.Strings(states)
	return states
}

// TableSummary holds headline counts for a season table.
type TableSummary struct {
	Season   string `json:"season" yaml:"season"`
	Records  int    `json:"records" yaml:"records"`
	States   int    `json:"states" yaml:"states"`
	Counties int    `json:"counties" yaml:"counties"`
}

// Summary counts records, distinct state names and distinct county names.
func (t *SeasonTable) Summary() TableSummary {
	s := TableSummary{}
	if t == nil {
		return s
	}
	s.Season = t.Season
	s.Records = len(t.Records)
	s.States = len(t.States())

	counties := make(map[string]bool)
	for _, r := range t.Records {
		counties[r.County] = true
	}
	s.Counties = len(counties)
	return s
}
