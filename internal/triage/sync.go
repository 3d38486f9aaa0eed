package triage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/mailtriage/internal/decision"
	"github.com/linnemanlabs/mailtriage/internal/mailsource"
)

// runSync executes one sync pass: list recent messages, skip known threads,
// fetch/extract/analyze the rest, persist each Email+Analysis pair.
// Connector and store errors abort the pass; earlier inserts stand. One
// malformed message never blocks the others.
func (s *Service) runSync(ctx context.Context) {
	start := time.Now()
	L := s.logger.With("op", "sync")

	refs, err := s.source.ListRecent(ctx, s.window)
	if err != nil {
		L.Error(ctx, err, "listing recent messages failed")
		s.syncDone("list_error", start)
		return
	}
	if len(refs) == 0 {
		// normal quiet window, not an error
		s.syncDone("empty", start)
		return
	}

	var ingested, skipped int
	for _, ref := range refs {
		exists, err := s.store.HasThread(ctx, ref.ID)
		if err != nil {
			L.Error(ctx, err, "dedup check failed, aborting pass", "thread_id", ref.ID)
			s.syncDone("store_error", start)
			return
		}
		if exists {
			skipped++
			s.metrics.DedupSkips.Inc()
			continue
		}

		msg, err := s.source.Fetch(ctx, ref.ID)
		if err != nil {
			L.Error(ctx, err, "fetching message failed, aborting pass", "message_id", ref.ID)
			s.syncDone("fetch_error", start)
			return
		}

		email, analysis := s.ingest(ctx, msg)

		if err := s.store.InsertEmail(ctx, email, analysis); err != nil {
			if errors.Is(err, ErrDuplicateThread) {
				// lost the race to a concurrent insert; the store's
				// uniqueness constraint did its job
				skipped++
				s.metrics.DedupSkips.Inc()
				L.Warn(ctx, "thread inserted concurrently, skipping", "thread_id", email.ThreadID)
				continue
			}
			L.Error(ctx, err, "persisting email failed, aborting pass", "thread_id", email.ThreadID)
			s.syncDone("store_error", start)
			return
		}
		ingested++
		s.metrics.EmailsIngested.Inc()
		s.metrics.ActionsRecommended.WithLabelValues(analysis.RecommendedAction).Inc()

		if analysis.ComplianceFlag {
			s.metrics.ComplianceAlerts.Inc()
			if s.notifier != nil {
				if nerr := s.notifier.ComplianceFlagged(ctx, email, analysis); nerr != nil {
					L.Error(ctx, nerr, "compliance notification failed", "email_id", email.ID)
				}
			}
		}
	}

	s.syncDone("ok", start)
	L.Info(ctx, "sync pass complete",
		"candidates", len(refs),
		"ingested", ingested,
		"skipped", skipped,
		"duration", time.Since(start).Seconds(),
	)
}

// ingest turns a fetched message into an Email and its Analysis. Extraction
// and inference degrade to sentinels and defaults rather than failing.
func (s *Service) ingest(ctx context.Context, msg *mailsource.Message) (*Email, *Analysis) {
	email := &Email{
		ID:         ulid.Make().String(),
		Sender:     msg.Header("From", "Unknown Sender"),
		Subject:    msg.Header("Subject", "No Subject"),
		Body:       mailsource.ExtractText(msg.Payload),
		ReceivedAt: msg.ReceivedAt(),
		ThreadID:   msg.ID,
		CreatedAt:  time.Now(),
	}

	res := s.engine.Analyze(ctx, email.Body, email.ReceivedAt)
	action, rationale := decision.Recommend(res.Intent, res.Sentiment, res.Priority)
	alerts := decision.ComplianceScan(email.Body)

	analysis := &Analysis{
		EmailID:           email.ID,
		Intent:            res.Intent,
		Sentiment:         res.Sentiment,
		Priority:          res.Priority,
		Summary:           res.Summary,
		ComplianceFlag:    len(alerts) > 0,
		ComplianceReason:  strings.Join(alerts, ", "),
		RecommendedAction: action,
		ActionReason:      rationale,
		Entities:          map[string]string{"intent": res.Intent},
		AgeHours:          res.AgeHours,
	}
	return email, analysis
}

func (s *Service) syncDone(result string, start time.Time) {
	s.metrics.SyncsTotal.WithLabelValues(result).Inc()
	s.metrics.SyncDuration.Observe(time.Since(start).Seconds())
}
