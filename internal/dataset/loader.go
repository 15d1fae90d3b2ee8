package dataset

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/freezethaw-cli/internal/fetcher"
	"github.com/sells-group/freezethaw-cli/internal/model"
)

// Load outcomes other than success. Load presents all of them as an empty table;
// LoadTable returns them wrapped so callers can tell them apart with eris.Is.
var (
	ErrNoSeasons       = eris.New("dataset: no season files found")
	ErrSeasonNotFound  = eris.New("dataset: season file not found")
	ErrAmbiguousSeason = eris.New("dataset: season matches more than one file")
	ErrMissingColumns  = eris.New("dataset: required columns missing")
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSheet selects the worksheet to read. Defaults to the first sheet.
func WithSheet(opts fetcher.SheetOptions) LoaderOption {
	return func(l *Loader) {
		l.sheet = opts
	}
}

// WithLogger overrides the diagnostics logger. Defaults to zap.L().
func WithLogger(log *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// Loader reads season workbooks from a directory. It holds no mutable state;
// every call builds a new table.
type Loader struct {
	dir   string
	sheet fetcher.SheetOptions
	log   *zap.Logger
}

// NewLoader creates a Loader for the workbooks in dir.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{dir: dir}
	for _, o := range opts {
		o(l)
	}
	if l.log == nil {
		l.log = zap.L()
	}
	l.log = l.log.With(zap.String("component", "dataset.loader"))
	return l
}

// Dir returns the directory the loader scans.
func (l *Loader) Dir() string {
	return l.dir
}

// Seasons lists the available seasons in ascending order.
func (l *Loader) Seasons() ([]string, error) {
	return Seasons(l.dir)
}

// LoadLatest loads the most recent season. It never fails; see Load.
func (l *Loader) LoadLatest(ctx context.Context) *model.SeasonTable {
	return l.Load(ctx, "")
}

// Load loads a season's table, or the most recent season when season is empty.
// Every failure is logged and turned into an empty table.
func (l *Loader) Load(ctx context.Context, season string) *model.SeasonTable {
	tbl, err := l.LoadTable(ctx, season)
	if err != nil {
		l.logFailure(season, err)
		return model.EmptyTable(season)
	}
	return tbl
}

// LoadTable loads a season's table and reports why when nothing could be loaded.
// An empty season selects the most recent one.
func (l *Loader) LoadTable(ctx context.Context, season string) (*model.SeasonTable, error) {
	if season == "" {
		seasons, err := Seasons(l.dir)
		if err != nil {
			return nil, err
		}
		if len(seasons) == 0 {
			return nil, eris.Wrapf(ErrNoSeasons, "dir %s", l.dir)
		}
		season = seasons[len(seasons)-1]
	}

	paths, err := resolveFile(l.dir, season)
	if err != nil {
		return nil, err
	}
	switch len(paths) {
	case 0:
		return nil, eris.Wrapf(ErrSeasonNotFound, "season %s", season)
	case 1:
	default:
		return nil, eris.Wrapf(ErrAmbiguousSeason, "season %s: %s", season, strings.Join(paths, ", "))
	}
	path := paths[0]

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: load cancelled")
	}

	sheet, err := readSheet(path, l.sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}

	tbl, stats, err := buildTable(season, path, sheet)
	if err != nil {
		return nil, err
	}

	l.log.Info("loaded season table",
		zap.String("season", season),
		zap.String("file", path),
		zap.Int("records", tbl.Len()),
		zap.Int("rows_read", stats.rows),
		zap.Int("rows_dropped", stats.dropped),
		zap.Int("damaging_clamped", stats.clamped),
	)

	return tbl, nil
}

func (l *Loader) logFailure(season string, err error) {
	fields := []zap.Field{zap.String("season", season), zap.String("dir", l.dir), zap.Error(err)}
	switch {
	case eris.Is(err, ErrNoSeasons), eris.Is(err, ErrSeasonNotFound), eris.Is(err, ErrAmbiguousSeason):
		l.log.Warn("no season data", fields...)
	case eris.Is(err, ErrMissingColumns):
		l.log.Warn("season file is missing columns", fields...)
	default:
		l.log.Error("failed to load season file", fields...)
	}
}

// readSheet wraps fetcher.ReadSheet, converting a parser panic into an error.
func readSheet(path string, opts fetcher.SheetOptions) (sheet *fetcher.Sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheet = nil
			err = eris.Errorf("xlsx: parse %s: %v", path, r)
		}
	}()
	return fetcher.ReadSheet(path, opts)
}

type loadStats struct {
	rows    int
	dropped int
	clamped int
}

// buildTable normalizes the sheet's columns and keeps only fully valid rows.
func buildTable(season, source string, sheet *fetcher.Sheet) (*model.SeasonTable, loadStats, error) {
	var stats loadStats

	idx := mapColumns(sheet.Header)
	if missing := missingColumns(idx); len(missing) > 0 {
		return nil, stats, eris.Wrapf(ErrMissingColumns, "%s is missing %s", source, strings.Join(missing, ", "))
	}

	tbl := &model.SeasonTable{
		Season:  season,
		Source:  source,
		Records: make([]model.StationRecord, 0, len(sheet.Rows)),
	}
	for _, row := range sheet.Rows {
		stats.rows++
		rec, ok := parseRecord(row, idx)
		if !ok {
			stats.dropped++
			continue
		}
		if rec.DamagingCycles > rec.TotalCycles {
			rec.DamagingCycles = rec.TotalCycles
			stats.clamped++
		}
		tbl.Records = append(tbl.Records, rec)
	}

	return tbl, stats, nil
}

// parseRecord coerces one row. ok is false when a field is missing, non-numeric
// or out of range.
func parseRecord(row []string, idx map[string]int) (model.StationRecord, bool) {
	rec := model.StationRecord{
		State:  getCol(row, idx, model.ColState),
		County: getCol(row, idx, model.ColCounty),
	}
	if rec.State == "" || rec.County == "" {
		return rec, false
	}

	var ok bool
	if rec.Latitude, ok = parseNumber(getCol(row, idx, model.ColLatitude)); !ok {
		return rec, false
	}
	if rec.Longitude, ok = parseNumber(getCol(row, idx, model.ColLongitude)); !ok {
		return rec, false
	}
	if rec.TotalCycles, ok = parseNumber(getCol(row, idx, model.ColTotalCycles)); !ok {
		return rec, false
	}
	if rec.DamagingCycles, ok = parseNumber(getCol(row, idx, model.ColDamagingCycles)); !ok {
		return rec, false
	}

	if rec.Latitude < -90 || rec.Latitude > 90 {
		return rec, false
	}
	if rec.Longitude < -180 || rec.Longitude > 180 {
		return rec, false
	}
	if rec.TotalCycles < 0 || rec.DamagingCycles < 0 {
		return rec, false
	}

	return rec, true
}
