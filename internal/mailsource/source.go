// Package mailsource defines the boundary to the upstream mail provider.
// It exposes the listing/fetching contract the sync pass consumes, the wire
// shapes for message payloads, and plain-text body extraction. Provider
// implementations live in subpackages (gmail).
package mailsource

import (
	"context"
	"time"
)

// Ref identifies a candidate message returned by a listing call. The
// message ID doubles as the conversation thread identifier downstream.
type Ref struct {
	ID string
}

// Part is one MIME part of a message payload. Body carries the provider's
// base64url-encoded content.
type Part struct {
	MimeType string
	Body     string
	Parts    []*Part
}

// Message is a fully fetched message. InternalDate is the provider receipt
// timestamp in milliseconds since the epoch.
type Message struct {
	ID           string
	Headers      map[string]string
	InternalDate int64
	Payload      *Part
}

// Window bounds a listing call: messages received within the last Days days,
// at most Max results.
type Window struct {
	Days int
	Max  int64
}

// Source lists and fetches messages from the mail provider. Auth and session
// lifecycle are the implementation's concern.
type Source interface {
	ListRecent(ctx context.Context, w Window) ([]Ref, error)
	Fetch(ctx context.Context, id string) (*Message, error)
}

// ReceivedAt converts the provider's millisecond timestamp to a time.Time.
func (m *Message) ReceivedAt() time.Time {
	return time.UnixMilli(m.InternalDate)
}

// Header returns the named header, or def when absent or empty.
func (m *Message) Header(name, def string) string {
	if v, ok := m.Headers[name]; ok && v != "" {
		return v
	}
	return def
}
