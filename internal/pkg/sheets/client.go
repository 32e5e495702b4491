package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2/google"
)

const (
	spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"
	appendURLFormat   = "https://sheets.googleapis.com/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED"
)

// Client appends rows to a single spreadsheet using a service-account
// credential. It talks to the Sheets v4 values:append endpoint directly.
type Client struct {
	spreadsheetID string
	sheetRange    string
	httpClient    *http.Client
}

// NewClient reads the service-account JSON from credentialsFile and builds a
// client that self-refreshes its OAuth token.
func NewClient(ctx context.Context, credentialsFile, spreadsheetID, sheetRange string) (*Client, error) {
	credJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheets credentials: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credJSON, spreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheets credentials: %w", err)
	}

	return &Client{
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		httpClient:    config.Client(ctx),
	}, nil
}

// AppendRow appends one row after the last row of the configured range.
func (c *Client) AppendRow(ctx context.Context, row []interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"values": [][]interface{}{row},
	})
	if err != nil {
		return fmt.Errorf("failed to encode sheet row: %w", err)
	}

	endpoint := fmt.Sprintf(appendURLFormat, c.spreadsheetID, url.PathEscape(c.sheetRange))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sheets request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets append request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheets append returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
