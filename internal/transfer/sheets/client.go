// Package sheets mirrors the entry collection to a Google Sheets tab and
// reads it back.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"sitelog/internal/core"
	"sitelog/internal/log"
)

// Options locate the spreadsheet and the credentials used to reach it. A
// service account is used when one is given, otherwise a user token
// obtained with Authorize.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// NewFromOptions creates an authenticated client.
func NewFromOptions(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, opts.SpreadsheetID, opts.SheetName, logger), nil
}

// New wraps an existing service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Nop()
	}
	if sheetName == "" {
		sheetName = "施工日志"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var auth goption.ClientOption
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		auth = goption.WithCredentialsJSON([]byte(opts.CredentialsJSON))
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		auth = goption.WithCredentialsJSON(b)
	case strings.TrimSpace(opts.OAuthTokenFile) != "":
		cfg, err := OAuthConfig(opts.OAuthClientJSON, opts.OAuthClientFile)
		if err != nil {
			return nil, err
		}
		tok, err := LoadToken(opts.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		auth = goption.WithTokenSource(cfg.TokenSource(ctx, tok))
	default:
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_OAUTH_TOKEN_FILE)")
	}

	service, err := gsheet.NewService(ctx, auth, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) a1(cols string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.sheetName, "'", "''"), cols)
}

// Export replaces the tab's content with a header and one row per entry.
func (c *Client) Export(ctx context.Context, entries []core.Entry) error {
	if c.svc == nil {
		return fmt.Errorf("%w: sheets service not initialized", core.ErrAdapterFailure)
	}
	values := make([][]any, 0, len(entries)+1)
	values = append(values, Header)
	for _, e := range entries {
		row, err := entryToRow(e)
		if err != nil {
			return err
		}
		values = append(values, row)
	}

	all := c.a1("A:K")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: clear %s: %v", core.ErrAdapterFailure, all, err)
	}
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.a1("A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: write %s: %v", core.ErrAdapterFailure, c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Mirrored entries to spreadsheet",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(entries),
		"sheet", c.sheetName)
	return nil
}

// Import reads every row of the tab. Blank rows are skipped; any malformed
// row fails the whole read with core.ErrFormat.
func (c *Client) Import(ctx context.Context) ([]core.Entry, error) {
	if c.svc == nil {
		return nil, fmt.Errorf("%w: sheets service not initialized", core.ErrAdapterFailure)
	}
	rng := c.a1("A:K")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrAdapterFailure, rng, err)
	}

	out := []core.Entry{}
	seen := map[string]struct{}{}
	for i, row := range resp.Values {
		if blankRow(row) {
			continue
		}
		if i == 0 && strings.TrimSpace(cellString(row[0])) == Header[0] {
			continue
		}
		e, err := rowToEntry(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", core.ErrFormat, i+1, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: row %d: duplicate id %q", core.ErrFormat, i+1, e.ID)
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

func blankRow(row []any) bool {
	for _, v := range row {
		if strings.TrimSpace(cellString(v)) != "" {
			return false
		}
	}
	return true
}
