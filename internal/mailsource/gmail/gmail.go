// Package gmail implements mailsource.Source on the Gmail API.
package gmail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/linnemanlabs/mailtriage/internal/mailsource"
)

// Source reads messages from a single Gmail mailbox via OAuth2.
type Source struct {
	service *gmail.Service
}

// New creates a Gmail source for the mailbox the token grants access to.
// The config's client refreshes the token as needed.
func New(ctx context.Context, config *oauth2.Config, token *oauth2.Token) (*Source, error) {
	client := config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Source{service: service}, nil
}

// ListRecent returns refs for messages received within the window, newest
// first per Gmail's default ordering.
func (s *Source) ListRecent(ctx context.Context, w mailsource.Window) ([]mailsource.Ref, error) {
	after := time.Now().AddDate(0, 0, -w.Days).Unix()

	resp, err := s.service.Users.Messages.List("me").
		Q(fmt.Sprintf("after:%d", after)).
		MaxResults(w.Max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	refs := make([]mailsource.Ref, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		refs = append(refs, mailsource.Ref{ID: m.Id})
	}
	return refs, nil
}

// Fetch retrieves the full message, including headers and the MIME part tree.
func (s *Source) Fetch(ctx context.Context, id string) (*mailsource.Message, error) {
	msg, err := s.service.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	out := &mailsource.Message{
		ID:           msg.Id,
		Headers:      map[string]string{},
		InternalDate: msg.InternalDate,
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			out.Headers[h.Name] = h.Value
		}
		out.Payload = convertPart(msg.Payload)
	}

	return out, nil
}

func convertPart(p *gmail.MessagePart) *mailsource.Part {
	if p == nil {
		return nil
	}
	part := &mailsource.Part{MimeType: p.MimeType}
	if p.Body != nil {
		part.Body = p.Body.Data
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, convertPart(child))
	}
	return part
}
