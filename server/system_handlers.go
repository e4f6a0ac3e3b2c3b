package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Health reports liveness and, when a database is configured, whether it
// answers a ping.
func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.svc.Ping == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "in-memory"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
	}
}
