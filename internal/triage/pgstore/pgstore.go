// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/mailtriage/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/mailtriage/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// Store persists emails and analyses in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
// The caller owns the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const itemColumns = `e.id, e.sender, e.subject, e.body, e.received_at, e.thread_id,
	e.escalated_to, e.is_read, e.created_at,
	a.intent, a.sentiment, a.priority, a.summary, a.compliance_flag, a.compliance_reason,
	a.recommended_action, a.action_reason, a.entities, a.age_hours, a.resolved_at, a.resolution_details`

// InsertEmail stores the email and its analysis in one transaction. A
// second email on the same thread fails with triage.ErrDuplicateThread.
func (s *Store) InsertEmail(ctx context.Context, e *triage.Email, a *triage.Analysis) error {
	ctx, span := tracer.Start(ctx, "pgstore.InsertEmail", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	entitiesJSON, err := json.Marshal(a.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	_, err = tx.Exec(ctx,
		`INSERT INTO emails (id, sender, subject, body, received_at, thread_id, escalated_to, is_read, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.Sender, e.Subject, e.Body, e.ReceivedAt, e.ThreadID, e.EscalatedTo, e.IsRead, e.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return triage.ErrDuplicateThread
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert email: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO analyses (email_id, intent, sentiment, priority, summary, compliance_flag,
			compliance_reason, recommended_action, action_reason, entities, age_hours)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, a.Intent, a.Sentiment, a.Priority, a.Summary, a.ComplianceFlag,
		a.ComplianceReason, a.RecommendedAction, a.ActionReason, entitiesJSON, a.AgeHours,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert analysis: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetEmail retrieves an email with its analysis by email ID.
func (s *Store) GetEmail(ctx context.Context, id string) (*triage.EmailWithAnalysis, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetEmail", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + itemColumns + ` FROM emails e JOIN analyses a ON a.email_id = e.id WHERE e.id = $1`
	item, err := scanItem(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if item == nil {
		return nil, false, nil
	}
	return item, true, nil
}

// HasThread reports whether an email for the thread was already ingested.
func (s *Store) HasThread(ctx context.Context, threadID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.HasThread", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM emails WHERE thread_id = $1)`, threadID).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("thread lookup: %w", err)
	}
	return exists, nil
}

// ListEmails returns emails matching the filter, newest received first.
func (s *Store) ListEmails(ctx context.Context, f triage.Filter) ([]*triage.EmailWithAnalysis, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListEmails", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + itemColumns + ` FROM emails e JOIN analyses a ON a.email_id = e.id`
	var (
		conds []string
		args  []any
	)
	if f.Priority != "" {
		args = append(args, f.Priority)
		conds = append(conds, fmt.Sprintf("a.priority = $%d", len(args)))
	}
	if f.Sentiment != "" {
		args = append(args, f.Sentiment)
		conds = append(conds, fmt.Sprintf("a.sentiment = $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY e.received_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query emails: %w", err)
	}
	defer rows.Close()

	var out []*triage.EmailWithAnalysis
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate emails: %w", err)
	}
	return out, nil
}

// SetEscalation routes the email to the reviewer.
func (s *Store) SetEscalation(ctx context.Context, emailID, reviewer string) error {
	ctx, span := tracer.Start(ctx, "pgstore.SetEscalation", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	tag, err := s.pool.Exec(ctx, `UPDATE emails SET escalated_to = $2 WHERE id = $1`, emailID, reviewer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("set escalation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return triage.ErrNotFound
	}
	return nil
}

// MarkResolved records the resolution and clears any escalation target,
// in one transaction.
func (s *Store) MarkResolved(ctx context.Context, emailID, details string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "pgstore.MarkResolved", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	tag, err := tx.Exec(ctx, `UPDATE emails SET escalated_to = '' WHERE id = $1`, emailID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("clear escalation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return triage.ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE analyses SET resolved_at = $2, resolution_details = $3 WHERE email_id = $1`,
		emailID, at, details,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("mark resolved: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindResolvedByIntent returns one resolved analysis sharing the intent,
// or ok=false when none exists. Which one is unspecified.
func (s *Store) FindResolvedByIntent(ctx context.Context, intent string) (*triage.Resolution, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.FindResolvedByIntent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var r triage.Resolution
	err := s.pool.QueryRow(ctx,
		`SELECT resolution_details, resolved_at, intent FROM analyses
		 WHERE intent = $1 AND resolved_at IS NOT NULL LIMIT 1`,
		intent,
	).Scan(&r.Details, &r.ResolvedAt, &r.Intent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("resolution lookup: %w", err)
	}
	return &r, true, nil
}

// scanItem scans one joined emails+analyses row. Returns (nil, nil) when
// no row is found.
func scanItem(row pgx.Row) (*triage.EmailWithAnalysis, error) {
	var (
		item         triage.EmailWithAnalysis
		a            triage.Analysis
		entitiesJSON []byte
	)
	err := row.Scan(
		&item.ID, &item.Sender, &item.Subject, &item.Body, &item.ReceivedAt, &item.ThreadID,
		&item.EscalatedTo, &item.IsRead, &item.CreatedAt,
		&a.Intent, &a.Sentiment, &a.Priority, &a.Summary, &a.ComplianceFlag, &a.ComplianceReason,
		&a.RecommendedAction, &a.ActionReason, &entitiesJSON, &a.AgeHours, &a.ResolvedAt, &a.ResolutionDetails,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	a.EmailID = item.ID
	if err := json.Unmarshal(entitiesJSON, &a.Entities); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	item.Analysis = &a
	return &item, nil
}
