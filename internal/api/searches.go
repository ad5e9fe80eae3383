package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/agromarket/search-alerts/internal/entities"
	"github.com/agromarket/search-alerts/internal/services"
)

type searchManager interface {
	Create(ctx context.Context, criteria services.SearchCriteria) (*entities.SavedSearch, error)
	Update(ctx context.Context, searchID string, criteria services.SearchCriteria) error
	GetByOwner(ctx context.Context, ownerID string) ([]entities.SavedSearch, error)
	ToggleAlerts(ctx context.Context, searchID, ownerID string, enabled bool) error
	Delete(ctx context.Context, searchID, ownerID string) error
}

// NewSearchesHandler serves /searches and /searches/{id}. The caller is an
// internal marketplace service that has already authenticated the user and
// forwards their id in the X-User-ID header.
func NewSearchesHandler(manager searchManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ownerID := r.Header.Get("X-User-ID")
		if ownerID == "" {
			http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
			return
		}

		searchID := strings.TrimPrefix(r.URL.Path, "/searches")
		searchID = strings.Trim(searchID, "/")

		switch {
		case r.Method == http.MethodGet && searchID == "":
			searches, err := manager.GetByOwner(r.Context(), ownerID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, searches)

		case r.Method == http.MethodPost && searchID == "":
			criteria, ok := decodeCriteria(w, r, ownerID)
			if !ok {
				return
			}
			search, err := manager.Create(r.Context(), criteria)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, search)

		case r.Method == http.MethodPut && searchID != "":
			criteria, ok := decodeCriteria(w, r, ownerID)
			if !ok {
				return
			}
			if err := manager.Update(r.Context(), searchID, criteria); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})

		case r.Method == http.MethodPatch && searchID != "":
			var body struct {
				AlertsEnabled bool `json:"alertsEnabled"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			if err := manager.ToggleAlerts(r.Context(), searchID, ownerID, body.AlertsEnabled); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})

		case r.Method == http.MethodDelete && searchID != "":
			if err := manager.Delete(r.Context(), searchID, ownerID); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func decodeCriteria(w http.ResponseWriter, r *http.Request, ownerID string) (services.SearchCriteria, bool) {
	var criteria services.SearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return criteria, false
	}
	criteria.OwnerID = ownerID
	return criteria, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "saved search not found", http.StatusNotFound)
	case errors.Is(err, services.ErrBlankQueryText),
		errors.Is(err, services.ErrInvalidPriceRange),
		errors.Is(err, services.ErrUnknownCategory):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
