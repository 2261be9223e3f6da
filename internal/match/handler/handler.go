package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pricematch-service/internal/config"
	"pricematch-service/internal/match/model"
	matchSvc "pricematch-service/internal/match/service"
)

type matchRequest struct {
	Items     []model.QueryItem          `json:"items"`
	Catalogue []model.CatalogueCandidate `json:"catalogue"`
	Options   *model.Options             `json:"options,omitempty"`
}

type rowsRequest struct {
	Rows      []map[string]string        `json:"rows"`
	Mapping   model.RowMapping           `json:"mapping"`
	Catalogue []model.CatalogueCandidate `json:"catalogue"`
	Options   *model.Options             `json:"options,omitempty"`
}

type matchResponse struct {
	Results []model.MatchResult `json:"results"`
	Options model.Options       `json:"options"` // echo of what actually applied
}

// Match handles POST /match: structured query items against a catalogue.
func Match(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := reqLogger(logger, r)

		var req matchRequest
		if err := decodeStrict(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "bad request body: "+err.Error())
			return
		}

		opt := effectiveOptions(req.Options, cfg)
		results := matchSvc.FindMatchesForItems(r.Context(), req.Items, req.Catalogue, opt)

		writeJSON(w, log, matchResponse{Results: results, Options: opt})
		log.Info().
			Int("items", len(req.Items)).
			Int("catalogue", len(req.Catalogue)).
			Dur("elapsed", time.Since(start)).
			Msg("match done")
	}
}

// MatchRows handles POST /match/rows: loosely-typed extracted rows plus a
// column mapping. The mapping is a closed record: unknown JSON keys are
// rejected, not ignored.
func MatchRows(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := reqLogger(logger, r)

		var req rowsRequest
		if err := decodeStrict(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "bad request body: "+err.Error())
			return
		}
		if req.Mapping.NameKey == "" {
			httpError(w, http.StatusBadRequest, "mapping.nameKey is required")
			return
		}

		items := toQueryItems(req.Rows, req.Mapping)
		opt := effectiveOptions(req.Options, cfg)
		results := matchSvc.FindMatchesForItems(r.Context(), items, req.Catalogue, opt)

		writeJSON(w, log, matchResponse{Results: results, Options: opt})
		log.Info().
			Int("rows", len(req.Rows)).
			Int("items", len(items)).
			Int("catalogue", len(req.Catalogue)).
			Dur("elapsed", time.Since(start)).
			Msg("match rows done")
	}
}

func effectiveOptions(in *model.Options, cfg config.Config) model.Options {
	opt := model.DefaultOptions()
	if cfg.TopK > 0 {
		opt.TopK = cfg.TopK
	}
	if in != nil {
		opt = *in
		if opt.TopK <= 0 {
			opt.TopK = cfg.TopK
		}
		z := model.Thresholds{}
		if opt.Thresholds == z {
			opt.Thresholds = model.DefaultThresholds()
		}
	}
	return opt
}

func reqLogger(logger zerolog.Logger, r *http.Request) zerolog.Logger {
	if rid := r.Header.Get("X-Request-ID"); rid != "" {
		return logger.With().Str("req_id", rid).Logger()
	}
	return logger
}

func decodeStrict(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// trailing garbage after the JSON document is an error too
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}
