// Package sheets reads tracker rows from the Google Sheets v4 API.
package sheets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var (
	ErrMissingCredentials = errors.New("no Google credentials configured")
	ErrInvalidCredentials = errors.New("Google credentials are neither JSON nor base64-encoded JSON")
)

type ClientConfig struct {
	SpreadsheetID   string
	SheetName       string
	Range           string // A1 notation without the sheet, e.g. "A3:G"
	CredentialsPath string
	CredentialsJSON string // raw or base64-encoded service account JSON
	Timeout         time.Duration
}

// Client implements sheet.Source.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	readRange     string
	timeout       time.Duration
	logger        *logrus.Entry
}

// NewClient builds a read-only Sheets client from service account credentials.
func NewClient(ctx context.Context, cfg ClientConfig, logger *logrus.Entry) (*Client, error) {
	opts, err := credentialOptions(cfg)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, cfg, logger, append(opts, option.WithScopes(gsheets.SpreadsheetsReadonlyScope))...)
}

func newClient(ctx context.Context, cfg ClientConfig, logger *logrus.Entry, opts ...option.ClientOption) (*Client, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     A1Range(cfg.SheetName, cfg.Range),
		timeout:       cfg.Timeout,
		logger:        logger,
	}, nil
}

func credentialOptions(cfg ClientConfig) ([]option.ClientOption, error) {
	if cfg.CredentialsJSON != "" {
		data, err := DecodeCredentials(cfg.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithCredentialsJSON(data)}, nil
	}
	if cfg.CredentialsPath != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsPath)}, nil
	}
	return nil, ErrMissingCredentials
}

// DecodeCredentials accepts service account JSON as is or base64-encoded, the
// form CI secrets usually carry it in.
func DecodeCredentials(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		if !json.Valid([]byte(s)) {
			return nil, ErrInvalidCredentials
		}
		return []byte(s), nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding} {
		decoded, err := enc.DecodeString(s)
		if err == nil && json.Valid(decoded) {
			return decoded, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// A1Range joins a sheet name and a range, quoting the name when the API requires it.
func A1Range(sheetName, rng string) string {
	if sheetName == "" {
		return rng
	}
	plain := true
	for _, r := range sheetName {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			plain = false
			break
		}
	}
	if !plain {
		sheetName = "'" + strings.ReplaceAll(sheetName, "'", "''") + "'"
	}
	return sheetName + "!" + rng
}

// FetchRows reads the configured range once. Rows come back as the API sends
// them: trailing empty cells are omitted, fully empty rows are empty slices.
func (c *Client) FetchRows(ctx context.Context) ([][]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.readRange, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		cells := make([]string, len(raw))
		for j, v := range raw {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	c.logger.WithFields(logrus.Fields{"range": c.readRange, "rows": len(rows)}).Debug("Fetched sheet values")
	return rows, nil
}
