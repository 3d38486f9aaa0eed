package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/mailtriage/internal/triage"
)

func email(id, thread string, received time.Time) *triage.Email {
	return &triage.Email{
		ID:         id,
		Sender:     "x@example.com",
		Subject:    "subject",
		Body:       "body",
		ReceivedAt: received,
		ThreadID:   thread,
		CreatedAt:  time.Now(),
	}
}

func analysis(emailID, intent, sentiment, priority string) *triage.Analysis {
	return &triage.Analysis{
		EmailID:   emailID,
		Intent:    intent,
		Sentiment: sentiment,
		Priority:  priority,
		Summary:   "summary",
		Entities:  map[string]string{"intent": intent},
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.InsertEmail(ctx, email("em-1", "th-1", time.Now()), analysis("em-1", "billing", "neutral", "low")); err != nil {
		t.Fatalf("InsertEmail: %v", err)
	}

	got, ok, err := s.GetEmail(ctx, "em-1")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if !ok {
		t.Fatal("expected email to be found")
	}
	if got.ID != "em-1" || got.ThreadID != "th-1" {
		t.Errorf("got %q/%q, want em-1/th-1", got.ID, got.ThreadID)
	}
	if got.Analysis == nil || got.Analysis.Intent != "billing" {
		t.Errorf("analysis = %+v", got.Analysis)
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.GetEmail(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing ID")
	}
}

func TestStore_DuplicateThread(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.InsertEmail(ctx, email("em-1", "th-1", time.Now()), analysis("em-1", "billing", "neutral", "low")); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := s.InsertEmail(ctx, email("em-2", "th-1", time.Now()), analysis("em-2", "billing", "neutral", "low"))
	if !errors.Is(err, triage.ErrDuplicateThread) {
		t.Fatalf("err = %v, want ErrDuplicateThread", err)
	}

	if _, ok, _ := s.GetEmail(ctx, "em-2"); ok {
		t.Error("rejected insert should leave no record")
	}
}

func TestStore_HasThread(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.InsertEmail(ctx, email("em-1", "th-1", time.Now()), analysis("em-1", "billing", "neutral", "low"))

	ok, err := s.HasThread(ctx, "th-1")
	if err != nil {
		t.Fatalf("HasThread: %v", err)
	}
	if !ok {
		t.Error("expected th-1 to exist")
	}
	ok, _ = s.HasThread(ctx, "th-2")
	if ok {
		t.Error("expected th-2 to be absent")
	}
}

func TestStore_ListFiltersAndOrders(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Now()
	_ = s.InsertEmail(ctx, email("em-1", "th-1", base.Add(-2*time.Hour)), analysis("em-1", "billing", "angry", "high"))
	_ = s.InsertEmail(ctx, email("em-2", "th-2", base.Add(-1*time.Hour)), analysis("em-2", "tech", "neutral", "low"))
	_ = s.InsertEmail(ctx, email("em-3", "th-3", base), analysis("em-3", "billing", "angry", "low"))

	all, err := s.ListEmails(ctx, triage.Filter{})
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d, want 3", len(all))
	}
	if all[0].ID != "em-3" || all[2].ID != "em-1" {
		t.Errorf("order = %s,%s,%s, want newest first", all[0].ID, all[1].ID, all[2].ID)
	}

	angry, err := s.ListEmails(ctx, triage.Filter{Sentiment: "angry"})
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(angry) != 2 {
		t.Fatalf("sentiment filter: got %d, want 2", len(angry))
	}

	both, err := s.ListEmails(ctx, triage.Filter{Sentiment: "angry", Priority: "high"})
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(both) != 1 || both[0].ID != "em-1" {
		t.Fatalf("combined filter = %v", both)
	}
}

func TestStore_EscalateThenResolve(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.InsertEmail(ctx, email("em-1", "th-1", time.Now()), analysis("em-1", "billing", "neutral", "low"))

	if err := s.SetEscalation(ctx, "em-1", triage.Reviewer); err != nil {
		t.Fatalf("SetEscalation: %v", err)
	}
	got, _, _ := s.GetEmail(ctx, "em-1")
	if got.EscalatedTo != triage.Reviewer {
		t.Errorf("escalated_to = %q", got.EscalatedTo)
	}

	at := time.Now()
	if err := s.MarkResolved(ctx, "em-1", "handled", at); err != nil {
		t.Fatalf("MarkResolved: %v", err)
	}
	got, _, _ = s.GetEmail(ctx, "em-1")
	if got.EscalatedTo != "" {
		t.Error("resolution should clear the escalation target")
	}
	if !got.Analysis.Resolved() {
		t.Fatal("analysis should be resolved")
	}
	if *got.Analysis.ResolutionDetails != "handled" {
		t.Errorf("details = %q", *got.Analysis.ResolutionDetails)
	}
}

func TestStore_MutationsOnMissingEmail(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.SetEscalation(ctx, "nope", triage.Reviewer); !errors.Is(err, triage.ErrNotFound) {
		t.Errorf("SetEscalation err = %v, want ErrNotFound", err)
	}
	if err := s.MarkResolved(ctx, "nope", "d", time.Now()); !errors.Is(err, triage.ErrNotFound) {
		t.Errorf("MarkResolved err = %v, want ErrNotFound", err)
	}
}

func TestStore_FindResolvedByIntent(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.InsertEmail(ctx, email("em-1", "th-1", time.Now()), analysis("em-1", "billing", "neutral", "low"))
	_ = s.InsertEmail(ctx, email("em-2", "th-2", time.Now()), analysis("em-2", "billing", "neutral", "low"))

	if _, ok, _ := s.FindResolvedByIntent(ctx, "billing"); ok {
		t.Fatal("no resolution yet")
	}

	_ = s.MarkResolved(ctx, "em-1", "handled", time.Now())

	r, ok, err := s.FindResolvedByIntent(ctx, "billing")
	if err != nil {
		t.Fatalf("FindResolvedByIntent: %v", err)
	}
	if !ok {
		t.Fatal("expected a resolution")
	}
	if r.Details != "handled" || r.Intent != "billing" {
		t.Errorf("resolution = %+v", r)
	}

	if _, ok, _ := s.FindResolvedByIntent(ctx, "tech"); ok {
		t.Error("unrelated intent should miss")
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.InsertEmail(ctx, email("em-1", "th-1", time.Now()), analysis("em-1", "billing", "neutral", "low"))

	got, _, _ := s.GetEmail(ctx, "em-1")
	got.Sender = "mutated"
	got.Analysis.Intent = "mutated"
	got.Analysis.Entities["intent"] = "mutated"

	again, _, _ := s.GetEmail(ctx, "em-1")
	if again.Sender != "x@example.com" || again.Analysis.Intent != "billing" {
		t.Error("mutating a returned value must not affect the store")
	}
	if again.Analysis.Entities["intent"] != "billing" {
		t.Error("entities map must be copied")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	for i := range n {
		id := fmt.Sprintf("em-%d", i)
		th := fmt.Sprintf("th-%d", i)

		go func() {
			defer wg.Done()
			_ = s.InsertEmail(ctx, email(id, th, time.Now()), analysis(id, "billing", "neutral", "low"))
		}()

		go func() {
			defer wg.Done()
			_, _, _ = s.GetEmail(ctx, id)
			_, _ = s.HasThread(ctx, th)
			_, _ = s.ListEmails(ctx, triage.Filter{})
		}()
	}

	wg.Wait()
}
