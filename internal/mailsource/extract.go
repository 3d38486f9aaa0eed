package mailsource

import "encoding/base64"

// ExtractFailed is returned when a message has no decodable text/plain
// content. Ingestion stores it as the body rather than failing the message.
const ExtractFailed = "Body content extraction failed or is empty."

// ExtractText pulls the human-readable text out of a message payload: the
// first text/plain part found depth-first, or the top-level body when the
// payload has no parts and is itself text/plain. Malformed base64 and
// missing plain-text content both yield ExtractFailed, never an error.
func ExtractText(p *Part) string {
	if p == nil {
		return ExtractFailed
	}

	if len(p.Parts) > 0 {
		if text, ok := findPlainText(p.Parts); ok {
			return text
		}
		return ExtractFailed
	}

	if p.MimeType == "text/plain" {
		if text, ok := decodeBody(p.Body); ok {
			return text
		}
	}
	return ExtractFailed
}

func findPlainText(parts []*Part) (string, bool) {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.MimeType == "text/plain" {
			if text, ok := decodeBody(part.Body); ok {
				return text, true
			}
			continue
		}
		if text, ok := findPlainText(part.Parts); ok {
			return text, true
		}
	}
	return "", false
}

// decodeBody decodes base64url content. Gmail omits padding, so try the
// padded alphabet first and fall back to the raw one.
func decodeBody(data string) (string, bool) {
	if data == "" {
		return "", false
	}
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), true
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b), true
	}
	return "", false
}
