package triage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/mailtriage/internal/inference"
	"github.com/linnemanlabs/mailtriage/internal/mailsource"
)

var (
	// ErrInvalidRole is returned by Act for roles outside the accepted set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrAlreadyResolved is returned when escalating a resolved analysis;
	// there is no transition out of Resolved.
	ErrAlreadyResolved = errors.New("analysis already resolved")
)

// Notifier receives noteworthy pipeline events. Implementations must not
// block for long; failures are logged, never surfaced.
type Notifier interface {
	EscalationRaised(ctx context.Context, item *EmailWithAnalysis) error
	ComplianceFlagged(ctx context.Context, email *Email, analysis *Analysis) error
}

// SyncAck is the immediate response to a sync trigger. The pass itself runs
// asynchronously; callers observe progress only through subsequent reads.
type SyncAck struct {
	Started bool   `json:"started"`
	Reason  string `json:"reason,omitempty"`
}

// Service owns the analysis-and-resolution pipeline: sync passes, list
// reads with suggested resolutions, and the escalation lifecycle.
type Service struct {
	store    Store
	source   mailsource.Source
	engine   *inference.Engine
	notifier Notifier
	logger   log.Logger
	metrics  *Metrics
	window   mailsource.Window

	// serializes sync passes; together with the store's thread-id
	// uniqueness this closes the dedup read-then-insert race
	syncMu sync.Mutex
}

// NewService creates the triage service. notifier may be nil.
func NewService(store Store, source mailsource.Source, engine *inference.Engine, logger log.Logger, metrics *Metrics, notifier Notifier, window mailsource.Window) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Service{
		store:    store,
		source:   source,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		window:   window,
	}
}

// SyncNow starts a sync pass in the background and returns immediately.
// At most one pass is in flight; a trigger while one runs is acknowledged
// without starting another.
func (s *Service) SyncNow(ctx context.Context) *SyncAck {
	if !s.syncMu.TryLock() {
		s.metrics.SyncsTotal.WithLabelValues("busy").Inc()
		return &SyncAck{Started: false, Reason: "sync already running"}
	}

	go func(ctx context.Context) {
		defer s.syncMu.Unlock()
		s.runSync(ctx)
	}(context.WithoutCancel(ctx))

	return &SyncAck{Started: true}
}

// List returns stored emails matching the filter, newest received first.
// Unresolved analyses with a usable intent get a suggested resolution
// attached when a resolved peer with the same intent exists.
func (s *Service) List(ctx context.Context, f Filter) ([]*EmailWithAnalysis, error) {
	items, err := s.store.ListEmails(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}

	for _, item := range items {
		if item.Analysis == nil || item.Analysis.Resolved() {
			continue
		}
		if r, ok := s.findResolution(ctx, item.Analysis.Intent); ok {
			item.SuggestedResolution = r
		}
	}
	return items, nil
}

// Get retrieves one email with its analysis.
func (s *Service) Get(ctx context.Context, id string) (*EmailWithAnalysis, bool, error) {
	return s.store.GetEmail(ctx, id)
}

// Act applies an agent action to an email: agents escalate, team members
// resolve. Both are idempotent. Store failures propagate to the caller.
func (s *Service) Act(ctx context.Context, emailID, role string) (string, error) {
	switch role {
	case RoleAgent:
		return s.escalate(ctx, emailID)
	case RoleTeamMember:
		return s.resolve(ctx, emailID, role)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
}

// escalate routes the email to the fixed reviewer. Valid from Open or
// Escalated; a resolved analysis cannot re-enter the escalation flow.
func (s *Service) escalate(ctx context.Context, emailID string) (string, error) {
	item, ok, err := s.store.GetEmail(ctx, emailID)
	if err != nil {
		return "", fmt.Errorf("load email: %w", err)
	}
	if !ok {
		return "", ErrNotFound
	}
	if item.Analysis != nil && item.Analysis.Resolved() {
		return "", ErrAlreadyResolved
	}

	if err := s.store.SetEscalation(ctx, emailID, Reviewer); err != nil {
		return "", fmt.Errorf("set escalation: %w", err)
	}
	s.metrics.ActionsTotal.WithLabelValues("escalate").Inc()

	if s.notifier != nil {
		item.EscalatedTo = Reviewer
		if nerr := s.notifier.EscalationRaised(ctx, item); nerr != nil {
			s.logger.Error(ctx, nerr, "escalation notification failed", "email_id", emailID)
		}
	}

	return "Escalated to " + Reviewer, nil
}

// resolve clears the escalation target and records the resolution. Valid
// from any state; re-resolving overwrites the prior resolution.
func (s *Service) resolve(ctx context.Context, emailID, role string) (string, error) {
	details := fmt.Sprintf("Issue resolved via %s review. Standard action taken.", role)

	if err := s.store.MarkResolved(ctx, emailID, details, time.Now()); err != nil {
		return "", fmt.Errorf("mark resolved: %w", err)
	}
	s.metrics.ActionsTotal.WithLabelValues("resolve").Inc()

	return "Resolved and cached for future suggestions", nil
}

// findResolution looks up one resolved analysis sharing the intent. Empty
// and "unknown" intents return absent without touching the store; lookup
// errors degrade to absent.
func (s *Service) findResolution(ctx context.Context, intent string) (*Resolution, bool) {
	if intent == "" || intent == inference.DefaultIntent {
		s.metrics.ResolutionLookups.WithLabelValues("skipped").Inc()
		return nil, false
	}

	r, ok, err := s.store.FindResolvedByIntent(ctx, intent)
	if err != nil {
		s.logger.Error(ctx, err, "resolution lookup failed", "intent", intent)
		s.metrics.ResolutionLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		s.metrics.ResolutionLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	s.metrics.ResolutionLookups.WithLabelValues("hit").Inc()
	return r, true
}
