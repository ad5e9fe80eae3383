// Package api exposes the run-once trigger for external schedulers, the
// counterpart of the in-process cron adapter.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type scanRunner interface {
	RunOnce(ctx context.Context)
}

// NewTriggerHandler returns the /internal/scan handler. The caller must
// present the shared secret; without a configured secret the trigger is
// disabled entirely.
func NewTriggerHandler(runner scanRunner, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		if secret == "" {
			log.Warn("scan trigger called but no trigger secret is configured")
			http.Error(w, "trigger not configured", http.StatusServiceUnavailable)
			return
		}

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if r.Header.Get("Authorization") != "Bearer "+secret {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		runner.RunOnce(r.Context())

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":   true,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
