package mailapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/mailtriage/internal/triage"
)

// fakeService implements TriageService with canned responses.
type fakeService struct {
	ack        *triage.SyncAck
	items      []*triage.EmailWithAnalysis
	listErr    error
	item       *triage.EmailWithAnalysis
	getErr     error
	actMsg     string
	actErr     error
	lastFilter triage.Filter
	lastID     string
	lastRole   string
}

func (f *fakeService) SyncNow(context.Context) *triage.SyncAck { return f.ack }

func (f *fakeService) List(_ context.Context, filter triage.Filter) ([]*triage.EmailWithAnalysis, error) {
	f.lastFilter = filter
	return f.items, f.listErr
}

func (f *fakeService) Get(_ context.Context, id string) (*triage.EmailWithAnalysis, bool, error) {
	f.lastID = id
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.item, f.item != nil, nil
}

func (f *fakeService) Act(_ context.Context, id, role string) (string, error) {
	f.lastID = id
	f.lastRole = role
	return f.actMsg, f.actErr
}

func newTestRouter(t *testing.T, svc *fakeService, token string) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	New(nil, svc, token).RegisterRoutes(r)
	return r
}

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	api := New(nil, &fakeService{}, "")
	if api.logger == nil {
		t.Fatal("New(nil, svc) left logger nil; expected Nop logger")
	}
}

func TestNew_WithLogger(t *testing.T) {
	t.Parallel()

	api := New(log.Nop(), &fakeService{}, "")
	if api.logger == nil {
		t.Fatal("New(logger, svc) left logger nil")
	}
}

func TestNew_NilService_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New(nil, nil) did not panic; expected panic for nil service")
		}
	}()
	New(nil, nil, "")
}

func TestTriggerSync(t *testing.T) {
	t.Parallel()

	svc := &fakeService{ack: &triage.SyncAck{Started: true}}
	r := newTestRouter(t, svc, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var ack triage.SyncAck
	if err := json.NewDecoder(rec.Body).Decode(&ack); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ack.Started {
		t.Error("ack.Started = false, want true")
	}
}

func TestTriggerSync_Busy(t *testing.T) {
	t.Parallel()

	svc := &fakeService{ack: &triage.SyncAck{Started: false, Reason: "sync already running"}}
	r := newTestRouter(t, svc, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// still accepted; the ack body carries the refusal
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var ack triage.SyncAck
	_ = json.NewDecoder(rec.Body).Decode(&ack)
	if ack.Started || ack.Reason == "" {
		t.Errorf("ack = %+v, want not-started with reason", ack)
	}
}

func TestListEmails(t *testing.T) {
	t.Parallel()

	svc := &fakeService{items: []*triage.EmailWithAnalysis{
		{Email: triage.Email{ID: "em-1"}, Analysis: &triage.Analysis{Intent: "billing"}},
	}}
	r := newTestRouter(t, svc, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails?priority=high&sentiment=angry", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastFilter.Priority != "high" || svc.lastFilter.Sentiment != "angry" {
		t.Errorf("filter = %+v", svc.lastFilter)
	}
	var items []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0]["id"] != "em-1" {
		t.Errorf("items = %v", items)
	}
}

func TestListEmails_EmptyIsArray(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fakeService{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListEmails_StoreError(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fakeService{listErr: errors.New("db down")}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestGetEmail(t *testing.T) {
	t.Parallel()

	svc := &fakeService{item: &triage.EmailWithAnalysis{Email: triage.Email{ID: "em-1"}}}
	r := newTestRouter(t, svc, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails/em-1", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastID != "em-1" {
		t.Errorf("id = %q, want em-1", svc.lastID)
	}
}

func TestGetEmail_NotFound(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fakeService{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails/nope", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestEmailAction(t *testing.T) {
	t.Parallel()

	svc := &fakeService{actMsg: "Escalated to team-lead"}
	r := newTestRouter(t, svc, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/em-1/action", strings.NewReader(`{"role":"agent"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.lastID != "em-1" || svc.lastRole != "agent" {
		t.Errorf("act(%q, %q)", svc.lastID, svc.lastRole)
	}
	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp["msg"] != "Escalated to team-lead" {
		t.Errorf("msg = %q", resp["msg"])
	}
}

func TestEmailAction_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed payload", `{"role":`, nil, http.StatusBadRequest},
		{"invalid role", `{"role":"manager"}`, triage.ErrInvalidRole, http.StatusBadRequest},
		{"unknown email", `{"role":"agent"}`, triage.ErrNotFound, http.StatusNotFound},
		{"already resolved", `{"role":"agent"}`, triage.ErrAlreadyResolved, http.StatusConflict},
		{"store failure", `{"role":"agent"}`, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTestRouter(t, &fakeService{actErr: tt.err}, "")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/em-1/action", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuth_GuardsMutatingRoutes(t *testing.T) {
	t.Parallel()

	svc := &fakeService{ack: &triage.SyncAck{Started: true}, actMsg: "ok"}
	r := newTestRouter(t, svc, "secret-token")

	// reads stay open
	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("unauthenticated list: status = %d, want %d", rec.Code, http.StatusOK)
	}

	// writes require the token
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated sync: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Errorf("authenticated sync: status = %d, want %d", rec.Code, http.StatusAccepted)
	}
}
