package mailapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/mailtriage/internal/triage"
)

func (a *API) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	ack := a.svc.SyncNow(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(ack)
}

func (a *API) handleListEmails(w http.ResponseWriter, r *http.Request) {
	f := triage.Filter{
		Priority:  r.URL.Query().Get("priority"),
		Sentiment: r.URL.Query().Get("sentiment"),
	}

	items, err := a.svc.List(r.Context(), f)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list emails")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*triage.EmailWithAnalysis{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

type actionRequest struct {
	Role string `json:"role"`
}

func (a *API) handleEmailAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("mailtriage.email.id", id))

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	msg, err := a.svc.Act(r.Context(), id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, triage.ErrInvalidRole):
			http.Error(w, `{"error":"invalid role"}`, http.StatusBadRequest)
		case errors.Is(err, triage.ErrNotFound):
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		case errors.Is(err, triage.ErrAlreadyResolved):
			http.Error(w, `{"error":"already resolved"}`, http.StatusConflict)
		default:
			a.logger.Error(r.Context(), err, "email action failed", "id", id, "role", req.Role)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}

	span.SetAttributes(attribute.String("mailtriage.email.role", req.Role))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
