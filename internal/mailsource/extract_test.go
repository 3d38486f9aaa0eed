package mailsource

import (
	"encoding/base64"
	"testing"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractText_SinglePartPlain(t *testing.T) {
	t.Parallel()

	p := &Part{MimeType: "text/plain", Body: b64("hello world")}
	if got := ExtractText(p); got != "hello world" {
		t.Errorf("ExtractText = %q, want %q", got, "hello world")
	}
}

func TestExtractText_SinglePartUnpadded(t *testing.T) {
	t.Parallel()

	// Gmail strips padding from base64url bodies.
	raw := base64.RawURLEncoding.EncodeToString([]byte("no padding here"))
	p := &Part{MimeType: "text/plain", Body: raw}
	if got := ExtractText(p); got != "no padding here" {
		t.Errorf("ExtractText = %q, want %q", got, "no padding here")
	}
}

func TestExtractText_MultipartPicksFirstPlain(t *testing.T) {
	t.Parallel()

	p := &Part{
		MimeType: "multipart/alternative",
		Parts: []*Part{
			{MimeType: "text/html", Body: b64("<b>html</b>")},
			{MimeType: "text/plain", Body: b64("first plain")},
			{MimeType: "text/plain", Body: b64("second plain")},
		},
	}
	if got := ExtractText(p); got != "first plain" {
		t.Errorf("ExtractText = %q, want %q", got, "first plain")
	}
}

func TestExtractText_NestedParts(t *testing.T) {
	t.Parallel()

	p := &Part{
		MimeType: "multipart/mixed",
		Parts: []*Part{
			{
				MimeType: "multipart/alternative",
				Parts: []*Part{
					{MimeType: "text/html", Body: b64("<p>x</p>")},
					{MimeType: "text/plain", Body: b64("nested plain")},
				},
			},
			{MimeType: "application/pdf", Body: b64("%PDF")},
		},
	}
	if got := ExtractText(p); got != "nested plain" {
		t.Errorf("ExtractText = %q, want %q", got, "nested plain")
	}
}

func TestExtractText_Sentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		part *Part
	}{
		{"nil payload", nil},
		{"no plain part", &Part{
			MimeType: "multipart/alternative",
			Parts:    []*Part{{MimeType: "text/html", Body: b64("<b>x</b>")}},
		}},
		{"top-level html", &Part{MimeType: "text/html", Body: b64("<b>x</b>")}},
		{"malformed base64", &Part{MimeType: "text/plain", Body: "%%%not-base64%%%"}},
		{"empty body", &Part{MimeType: "text/plain", Body: ""}},
		{"malformed part in multipart", &Part{
			MimeType: "multipart/alternative",
			Parts:    []*Part{{MimeType: "text/plain", Body: "%%%"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractText(tt.part); got != ExtractFailed {
				t.Errorf("ExtractText = %q, want sentinel %q", got, ExtractFailed)
			}
		})
	}
}

func TestExtractText_SkipsBadPlainPartForLaterOne(t *testing.T) {
	t.Parallel()

	// A corrupt text/plain part must not mask a later decodable one.
	p := &Part{
		MimeType: "multipart/alternative",
		Parts: []*Part{
			{MimeType: "text/plain", Body: "%%%"},
			{MimeType: "text/plain", Body: b64("recovered")},
		},
	}
	if got := ExtractText(p); got != "recovered" {
		t.Errorf("ExtractText = %q, want %q", got, "recovered")
	}
}

func TestMessageHeader(t *testing.T) {
	t.Parallel()

	m := &Message{Headers: map[string]string{"From": "a@b.c", "Subject": ""}}

	if got := m.Header("From", "Unknown Sender"); got != "a@b.c" {
		t.Errorf("Header(From) = %q, want %q", got, "a@b.c")
	}
	if got := m.Header("Subject", "No Subject"); got != "No Subject" {
		t.Errorf("Header(Subject) = %q, want default %q", got, "No Subject")
	}
	if got := m.Header("Reply-To", "none"); got != "none" {
		t.Errorf("Header(Reply-To) = %q, want default %q", got, "none")
	}
}
