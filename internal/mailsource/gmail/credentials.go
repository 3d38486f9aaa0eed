package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// NewFromFiles builds a Source from an OAuth client credentials file and a
// previously stored token file.
func NewFromFiles(ctx context.Context, credentialsPath, tokenPath string) (*Source, error) {
	creds, err := os.ReadFile(credentialsPath) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	config, err := google.ConfigFromJSON(creds, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tokenBytes, err := os.ReadFile(tokenPath) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenBytes, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return New(ctx, config, &token)
}
