package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agromarket/search-alerts/internal/entities"
)

type notificationsReader interface {
	GetByUser(ctx context.Context, userID string, limit int) ([]entities.Notification, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, ids []string) error
}

const defaultNotificationsLimit = 50

// NewNotificationsHandler serves /notifications: GET returns the user's
// latest notifications with their unread count, POST marks a batch read.
func NewNotificationsHandler(reader notificationsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			limit := defaultNotificationsLimit
			if raw := r.URL.Query().Get("limit"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed <= 0 {
					http.Error(w, "invalid limit", http.StatusBadRequest)
					return
				}
				limit = parsed
			}

			notifications, err := reader.GetByUser(r.Context(), userID, limit)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			unread, err := reader.GetUnreadCount(r.Context(), userID)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"notifications": notifications,
				"unreadCount":   unread,
			})

		case http.MethodPost:
			var body struct {
				IDs []string `json:"ids"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			if err := reader.MarkRead(r.Context(), userID, body.IDs); err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
