package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	cmpHnd "pricematch-service/internal/compare/handler"
	"pricematch-service/internal/config"
	"pricematch-service/internal/currency"
	matchHnd "pricematch-service/internal/match/handler"
	"pricematch-service/internal/middleware"
	"pricematch-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, rates currency.Provider) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxBodyMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)

	r.Post("/match", matchHnd.Match(cfg, logger))
	r.Post("/match/rows", matchHnd.MatchRows(cfg, logger))
	r.Post("/compare", cmpHnd.Compare(cfg, logger, rates))

	return r
}
