// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linnemanlabs/mailtriage/internal/triage"
)

type record struct {
	email    triage.Email
	analysis triage.Analysis
}

// Store holds emails and analyses in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record // email ID -> record
	threads map[string]string  // thread ID -> email ID (dedup)
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*record),
		threads: make(map[string]string),
	}
}

// InsertEmail stores a copy of the email and its analysis. A second email
// on the same thread fails with triage.ErrDuplicateThread.
func (s *Store) InsertEmail(_ context.Context, e *triage.Email, a *triage.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.threads[e.ThreadID]; exists {
		return triage.ErrDuplicateThread
	}
	s.records[e.ID] = &record{email: *e, analysis: *a}
	s.threads[e.ThreadID] = e.ID
	return nil
}

// GetEmail retrieves an email with its analysis by email ID. Returns copies.
func (s *Store) GetEmail(_ context.Context, id string) (*triage.EmailWithAnalysis, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	return r.view(), true, nil
}

// HasThread reports whether an email for the thread was already ingested.
func (s *Store) HasThread(_ context.Context, threadID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.threads[threadID]
	return ok, nil
}

// ListEmails returns emails matching the filter, newest received first.
func (s *Store) ListEmails(_ context.Context, f triage.Filter) ([]*triage.EmailWithAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*triage.EmailWithAnalysis, 0, len(s.records))
	for _, r := range s.records {
		if f.Priority != "" && r.analysis.Priority != f.Priority {
			continue
		}
		if f.Sentiment != "" && r.analysis.Sentiment != f.Sentiment {
			continue
		}
		out = append(out, r.view())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SetEscalation routes the email to the reviewer.
func (s *Store) SetEscalation(_ context.Context, emailID, reviewer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[emailID]
	if !ok {
		return triage.ErrNotFound
	}
	r.email.EscalatedTo = reviewer
	return nil
}

// MarkResolved records the resolution and clears any escalation target.
func (s *Store) MarkResolved(_ context.Context, emailID, details string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[emailID]
	if !ok {
		return triage.ErrNotFound
	}
	r.email.EscalatedTo = ""
	r.analysis.ResolvedAt = &at
	r.analysis.ResolutionDetails = &details
	return nil
}

// FindResolvedByIntent returns one resolved analysis sharing the intent,
// or ok=false when none exists. Which one is unspecified.
func (s *Store) FindResolvedByIntent(_ context.Context, intent string) (*triage.Resolution, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.analysis.Intent != intent || !r.analysis.Resolved() {
			continue
		}
		return &triage.Resolution{
			Details:    *r.analysis.ResolutionDetails,
			ResolvedAt: *r.analysis.ResolvedAt,
			Intent:     r.analysis.Intent,
		}, true, nil
	}
	return nil, false, nil
}

func (r *record) view() *triage.EmailWithAnalysis {
	ac := r.analysis
	if r.analysis.ResolvedAt != nil {
		at := *r.analysis.ResolvedAt
		ac.ResolvedAt = &at
	}
	if r.analysis.ResolutionDetails != nil {
		d := *r.analysis.ResolutionDetails
		ac.ResolutionDetails = &d
	}
	if r.analysis.Entities != nil {
		ents := make(map[string]string, len(r.analysis.Entities))
		for k, v := range r.analysis.Entities {
			ents[k] = v
		}
		ac.Entities = ents
	}
	return &triage.EmailWithAnalysis{Email: r.email, Analysis: &ac}
}
