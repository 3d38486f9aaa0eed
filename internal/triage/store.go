package triage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateThread is returned by InsertEmail when the thread
	// identifier is already stored. The sync pass treats it as a skip.
	ErrDuplicateThread = errors.New("thread already ingested")

	// ErrNotFound is returned by id-addressed operations for unknown emails.
	ErrNotFound = errors.New("email not found")
)

// Store is the persistence interface for emails and their analyses.
type Store interface {
	// InsertEmail persists an email and its analysis as one logical unit.
	// Returns ErrDuplicateThread when the thread identifier is taken.
	InsertEmail(ctx context.Context, email *Email, analysis *Analysis) error

	// GetEmail retrieves an email joined with its analysis.
	GetEmail(ctx context.Context, id string) (*EmailWithAnalysis, bool, error)

	// HasThread reports whether an email with the thread identifier exists.
	HasThread(ctx context.Context, threadID string) (bool, error)

	// ListEmails returns emails with analyses, newest received first.
	ListEmails(ctx context.Context, f Filter) ([]*EmailWithAnalysis, error)

	// SetEscalation assigns the email's escalation target.
	SetEscalation(ctx context.Context, emailID, reviewer string) error

	// MarkResolved clears the escalation target and records the resolution,
	// as one logical unit. Overwrites any prior resolution.
	MarkResolved(ctx context.Context, emailID, details string, at time.Time) error

	// FindResolvedByIntent returns some resolved analysis whose detected
	// intent matches. Which one is unspecified when several match.
	FindResolvedByIntent(ctx context.Context, intent string) (*Resolution, bool, error)
}
