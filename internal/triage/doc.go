// Package triage is the business boundary for mailtriage's analysis and
// resolution pipeline. It defines the Email/Analysis domain models, the
// Store interface (persistence), and the Service: sync-pass orchestration
// with dedup, list reads augmented with suggested resolutions, and the
// escalate/resolve lifecycle.
package triage
