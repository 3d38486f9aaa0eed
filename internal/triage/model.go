package triage

import "time"

// Reviewer is the fixed identity escalated emails are routed to.
const Reviewer = "team-lead"

// Actor roles accepted by Act. An agent escalates; a team member resolves.
const (
	RoleAgent      = "agent"
	RoleTeamMember = "team_member"
)

// Email is one inbound message. ThreadID is the provider's message
// identifier and the deduplication key: no two stored Emails share one.
type Email struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	ReceivedAt  time.Time `json:"received_at"`
	ThreadID    string    `json:"thread_id"`
	EscalatedTo string    `json:"escalated_to,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Analysis is the inference and decision output for one Email, 1:1.
// ResolvedAt and ResolutionDetails are set together or not at all.
type Analysis struct {
	EmailID           string            `json:"email_id"`
	Intent            string            `json:"intent"`
	Sentiment         string            `json:"sentiment"`
	Priority          string            `json:"priority"`
	Summary           string            `json:"summary"`
	ComplianceFlag    bool              `json:"compliance_flag"`
	ComplianceReason  string            `json:"compliance_reason,omitempty"`
	RecommendedAction string            `json:"recommended_action"`
	ActionReason      string            `json:"action_reason"`
	Entities          map[string]string `json:"extracted_entities"`
	AgeHours          float64           `json:"age_hours"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"`
	ResolutionDetails *string           `json:"final_resolution_details,omitempty"`
}

// Resolved reports whether the analysis has been marked resolved.
func (a *Analysis) Resolved() bool {
	return a.ResolvedAt != nil
}

// Resolution is a prior resolved outcome surfaced as a suggestion for an
// open analysis with the same intent.
type Resolution struct {
	Details    string    `json:"resolution"`
	ResolvedAt time.Time `json:"resolved_at"`
	Intent     string    `json:"intent"`
}

// EmailWithAnalysis is the read model: an Email joined with its Analysis
// and, for unresolved analyses, an optional suggested resolution.
type EmailWithAnalysis struct {
	Email
	Analysis            *Analysis   `json:"analysis"`
	SuggestedResolution *Resolution `json:"suggested_resolution,omitempty"`
}

// Filter narrows a list read. Empty fields match everything.
type Filter struct {
	Priority  string
	Sentiment string
}
