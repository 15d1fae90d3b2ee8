package lookup

import (
	"context"
	"sync"

	"github.com/sells-group/freezethaw-cli/internal/model"
)

// fakeSource serves canned tables and counts loads per season.
type fakeSource struct {
	seasons    []string
	seasonsErr error
	tables     map[string]*model.SeasonTable
	block      chan struct{}

	mu    sync.Mutex
	loads map[string]int
}

func newFakeSource(tables ...*model.SeasonTable) *fakeSource {
	f := &fakeSource{
		tables: make(map[string]*model.SeasonTable),
		loads:  make(map[string]int),
	}
	for _, t := range tables {
		f.seasons = append(f.seasons, t.Season)
		f.tables[t.Season] = t
	}
	return f
}

func (f *fakeSource) Seasons() ([]string, error) {
	return f.seasons, f.seasonsErr
}

func (f *fakeSource) Load(ctx context.Context, season string) *model.SeasonTable {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.loads[season]++
	f.mu.Unlock()

	// Like dataset.Loader, a cancelled load yields an empty table.
	if ctx.Err() != nil {
		return model.EmptyTable(season)
	}

	if season == "" && len(f.seasons) > 0 {
		season = f.seasons[len(f.seasons)-1]
	}
	if t, ok := f.tables[season]; ok {
		return t
	}
	return model.EmptyTable(season)
}

func (f *fakeSource) loadCount(season string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads[season]
}

func coloradoTable(season string) *model.SeasonTable {
	return &model.SeasonTable{
		Season: season,
		Records: []model.StationRecord{
			{State: "Colorado", County: "Boulder", Latitude: 40.0, Longitude: -105.27, TotalCycles: 10, DamagingCycles: 3},
			{State: "Colorado", County: "Denver", Latitude: 39.74, Longitude: -104.99, TotalCycles: 8, DamagingCycles: 8},
			{State: "Utah", County: "Salt Lake", Latitude: 40.76, Longitude: -111.89, TotalCycles: 30, DamagingCycles: 12},
		},
	}
}
