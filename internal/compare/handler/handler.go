package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricematch-service/internal/compare"
	"pricematch-service/internal/config"
	"pricematch-service/internal/currency"
)

type compareRequest struct {
	Pairings     []compare.Pairing `json:"pairings"`
	CurrencyFrom string            `json:"currencyFrom"`
	CurrencyTo   string            `json:"currencyTo"`
	// ExchangeRate overrides the provider; nil means "resolve it for me".
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
	// TolerancePct overrides both band defaults when set.
	TolerancePct *decimal.Decimal `json:"tolerancePct,omitempty"`
	// Path picks the default band: "linked" (tight) or "suggested" (loose).
	Path string `json:"path,omitempty"`
}

type compareResponse struct {
	Items        []compare.Item  `json:"items"`
	Summary      compare.Summary `json:"summary"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	TolerancePct decimal.Decimal `json:"tolerancePct"`
}

// Compare handles POST /compare: classify price discrepancies for a
// document's pairings and aggregate the totals.
func Compare(cfg config.Config, logger zerolog.Logger, rates currency.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger
		if rid := r.Header.Get("X-Request-ID"); rid != "" {
			log = logger.With().Str("req_id", rid).Logger()
		}

		var req compareRequest
		if err := decodeStrict(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "bad request body: "+err.Error())
			return
		}
		if req.CurrencyFrom == "" || req.CurrencyTo == "" {
			httpError(w, http.StatusBadRequest, "currencyFrom and currencyTo are required")
			return
		}

		rate, err := resolveRate(r, req, rates)
		if err != nil {
			if errors.Is(err, currency.ErrUnknownCurrency) {
				httpError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			httpError(w, http.StatusBadGateway, "rate resolution failed: "+err.Error())
			return
		}

		tol := tolerance(req, cfg)

		items := make([]compare.Item, 0, len(req.Pairings))
		for _, p := range req.Pairings {
			items = append(items, compare.Compare(p, rate, tol))
		}
		summary := compare.Summarize(items, req.CurrencyFrom, req.CurrencyTo, rate)

		// money fields round at the boundary only
		for i := range items {
			items[i] = items[i].Rounded()
		}

		writeJSON(w, log, compareResponse{
			Items:        items,
			Summary:      summary,
			ExchangeRate: rate,
			TolerancePct: tol,
		})
		log.Info().
			Int("pairings", len(req.Pairings)).
			Str("from", req.CurrencyFrom).
			Str("to", req.CurrencyTo).
			Dur("elapsed", time.Since(start)).
			Msg("compare done")
	}
}

func resolveRate(r *http.Request, req compareRequest, rates currency.Provider) (decimal.Decimal, error) {
	if req.ExchangeRate != nil {
		return *req.ExchangeRate, nil
	}
	return rates.GetRate(r.Context(), req.CurrencyFrom, req.CurrencyTo)
}

func tolerance(req compareRequest, cfg config.Config) decimal.Decimal {
	if req.TolerancePct != nil {
		return *req.TolerancePct
	}
	if req.Path == "suggested" {
		return decimal.NewFromFloat(cfg.ToleranceSuggestedPct)
	}
	return decimal.NewFromFloat(cfg.ToleranceLinkedPct)
}

func decodeStrict(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
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
