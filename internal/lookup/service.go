package lookup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/freezethaw-cli/internal/geo"
	"github.com/sells-group/freezethaw-cli/internal/model"
	"github.com/sells-group/freezethaw-cli/internal/monitoring"
)

// Status describes how a lookup resolved.
type Status string

const (
	StatusFound   Status = "found"    // station within range
	StatusNoMatch Status = "no_match" // state has stations, none within range
	StatusNoState Status = "no_state" // no station in the requested state
	StatusNoData  Status = "no_data"  // season table empty or missing
)

// Response is the outcome of a lookup. Stations is set for StatusNoMatch and
// AvailableStates for StatusNoState so callers can suggest alternatives.
type Response struct {
	Status          Status                `json:"status" yaml:"status"`
	Season          string                `json:"season" yaml:"season"`
	State           string                `json:"state" yaml:"state"`
	Latitude        float64               `json:"lat" yaml:"lat"`
	Longitude       float64               `json:"lon" yaml:"lon"`
	MaxKM           float64               `json:"max_km" yaml:"max_km"`
	Match           geo.MatchResult       `json:"match" yaml:"match"`
	DamagingShare   float64               `json:"damaging_share,omitempty" yaml:"damaging_share,omitempty"`
	Stations        []model.StationRecord `json:"stations,omitempty" yaml:"stations,omitempty"`
	AvailableStates []string              `json:"available_states,omitempty" yaml:"available_states,omitempty"`
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDefaultMaxKM sets the search radius used when a request leaves MaxKM at zero.
func WithDefaultMaxKM(km float64) ServiceOption {
	return func(s *Service) {
		if km > 0 {
			s.defaultMaxKM = km
		}
	}
}

// WithMetrics records query outcomes.
func WithMetrics(m *monitoring.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service runs station lookups against a table source.
type Service struct {
	source       Source
	defaultMaxKM float64
	metrics      *monitoring.Metrics
}

// NewService creates a lookup Service.
func NewService(source Source, opts ...ServiceOption) *Service {
	s := &Service{
		source:       source,
		defaultMaxKM: geo.DefaultMaxKM,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Seasons lists the available seasons in ascending order.
func (s *Service) Seasons() ([]string, error) {
	return s.source.Seasons()
}

// Table loads a season table; an empty season selects the most recent.
func (s *Service) Table(ctx context.Context, season string) *model.SeasonTable {
	return s.source.Load(ctx, season)
}

// Query validates req and finds the nearest station in the requested state.
// Only validation failures return an error; every other outcome is a Status.
func (s *Service) Query(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	maxKM := req.MaxKM
	if maxKM == 0 {
		maxKM = s.defaultMaxKM
	}

	tbl := s.source.Load(ctx, req.Season)
	resp := &Response{
		Season:    tbl.Season,
		State:     NormalizeState(req.State),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		MaxKM:     maxKM,
	}
	if resp.Season == "" {
		resp.Season = req.Season
	}

	s.resolve(tbl, resp)

	s.metrics.ObserveQuery(string(resp.Status), time.Since(start).Seconds())
	zap.L().Debug("station lookup",
		zap.String("status", string(resp.Status)),
		zap.String("season", resp.Season),
		zap.String("state", resp.State),
		zap.Float64("lat", resp.Latitude),
		zap.Float64("lon", resp.Longitude),
		zap.Float64("distance_km", resp.Match.DistanceKM),
	)

	return resp, nil
}

func (s *Service) resolve(tbl *model.SeasonTable, resp *Response) {
	if tbl.Empty() {
		resp.Status = StatusNoData
		return
	}

	candidates := FilterByState(tbl.Records, resp.State)
	if len(candidates) == 0 {
		resp.Status = StatusNoState
		resp.AvailableStates = tbl.States()
		return
	}

	match := geo.FindNearest(resp.Latitude, resp.Longitude, candidates, resp.MaxKM)
	if !match.Found {
		resp.Status = StatusNoMatch
		resp.Stations = candidates
		return
	}

	resp.Status = StatusFound
	resp.Match = match
	resp.DamagingShare = match.Record.DamagingShare()
}
