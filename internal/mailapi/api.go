// Package mailapi exposes the triage pipeline over HTTP.
package mailapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/mailtriage/internal/authmw"
	"github.com/linnemanlabs/mailtriage/internal/triage"
)

// TriageService defines the business operations mailapi needs.
type TriageService interface {
	SyncNow(ctx context.Context) *triage.SyncAck
	List(ctx context.Context, f triage.Filter) ([]*triage.EmailWithAnalysis, error)
	Get(ctx context.Context, id string) (*triage.EmailWithAnalysis, bool, error)
	Act(ctx context.Context, emailID, role string) (string, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TriageService
	token  string
}

// New creates a new API handler. An empty token disables auth on the
// mutating routes.
func New(logger log.Logger, svc TriageService, token string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
		token:  token,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/emails", a.handleListEmails)
		r.Get("/emails/{id}", a.handleGetEmail)

		r.Group(func(r chi.Router) {
			if a.token != "" {
				r.Use(authmw.BearerToken(a.token))
			}
			r.Post("/sync", a.handleTriggerSync)
			r.Post("/emails/{id}/action", a.handleEmailAction)
		})
	})
}

func (a *API) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("mailtriage.email.id", id))

	item, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get email", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(item)
}
