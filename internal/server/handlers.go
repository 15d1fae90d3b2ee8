package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/freezethaw-cli/internal/dataset"
	"github.com/sells-group/freezethaw-cli/internal/geo"
	"github.com/sells-group/freezethaw-cli/internal/lookup"
)

// latestSeason is the path alias for the most recent season.
const latestSeason = "latest"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := s.svc.Seasons()
	if err != nil {
		s.log.Error("list seasons failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list seasons")
		return
	}
	if seasons == nil {
		seasons = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"seasons": seasons})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	season := chi.URLParam(r, "season")
	if season == latestSeason {
		season = ""
	} else if !dataset.ValidSeason(season) {
		writeError(w, http.StatusBadRequest, "season must look like YYYY-YYYY or latest")
		return
	}

	tbl := s.svc.Table(r.Context(), season)
	if tbl.Empty() {
		writeError(w, http.StatusNotFound, "no data for season")
		return
	}
	writeJSON(w, http.StatusOK, tbl.Summary())
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueryGeoJSON(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.runQuery(w, r)
	if !ok {
		return
	}

	feature, found := geo.StationFeature(resp.Season, resp.Match)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"status": string(resp.Status),
			"error":  "no station found",
		})
		return
	}

	body, err := feature.MarshalJSON()
	if err != nil {
		s.log.Error("encode geojson failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not encode feature")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// runQuery parses the lookup parameters and runs the query. It writes the
// error response itself and returns false when the request is rejected.
func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) (*lookup.Response, bool) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	resp, err := s.svc.Query(r.Context(), req)
	if err != nil {
		if eris.Is(err, lookup.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		s.log.Error("query failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return nil, false
	}
	return resp, true
}

func parseRequest(r *http.Request) (lookup.Request, error) {
	q := r.URL.Query()
	req := lookup.Request{
		State:  q.Get("state"),
		Season: q.Get("season"),
	}

	var err error
	if req.Latitude, err = floatParam(q.Get("lat"), "lat", true); err != nil {
		return req, err
	}
	if req.Longitude, err = floatParam(q.Get("lon"), "lon", true); err != nil {
		return req, err
	}
	if req.MaxKM, err = floatParam(q.Get("max_km"), "max_km", false); err != nil {
		return req, err
	}
	return req, nil
}

func floatParam(raw, name string, required bool) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, eris.Errorf("%s is required", name)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Errorf("%s must be a number", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
