package server

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/newsroom/internal/api/v1"
	"github.com/gosuda/newsroom/internal/api/ws"
)

const healthTimeout = 2 * time.Second

func registerPublicRoutes(api huma.API, deps Deps) {
	v1.RegisterAuthRoutes(api, deps.Auth)
	v1.RegisterArticleRoutes(api, deps.Feed)
}

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterAccountRoutes(api, deps.Auth)
	v1.RegisterBookmarkRoutes(api, deps.Store, deps.Feed)
	v1.RegisterAnalysisRoutes(api, deps.Runs, deps.Feed)
	v1.RegisterShareRoutes(api, deps.Share, deps.Feed, deps.Runs, deps.Auth)
}

func registerAdminRoutes(api huma.API, deps Deps) {
	v1.RegisterFeedAdminRoutes(api, deps.Feed)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/analysis/{runID}", hub.ServeAnalysis)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler pings every dependency and answers 503 if any is down.
func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	names := slices.Sorted(maps.Keys(checks))

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				log.Warn().Err(err).Str("check", name).Msg("health check failed")
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}

		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
