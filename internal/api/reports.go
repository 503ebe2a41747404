/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"forex-portal-go/internal/models"

	"go.uber.org/zap"
)

const (
	ReportTransactionHistory = "transaction-history"
	ReportAccountStatement   = "mt5-account-statement"
)

// Format is a downloadable report encoding
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

const (
	contentTypePDF       = "application/pdf"
	contentTypeXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeLegacyXLS = "application/vnd.ms-excel"
)

const dateLayout = "2006-01-02"

// AcceptedContentTypes lists the media types a download of f may carry.
func (f Format) AcceptedContentTypes() []string {
	switch f {
	case FormatPDF:
		return []string{contentTypePDF}
	case FormatExcel:
		return []string{contentTypeXLSX, contentTypeLegacyXLS}
	default:
		return nil
	}
}

// Extension is the file extension used when saving f.
func (f Format) Extension() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatExcel:
		return ".xlsx"
	default:
		return ""
	}
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatExcel, "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (expected pdf or excel)", s)
	}
}

// ContentTypeError is returned when a download answers with a media type
// other than the requested file format, typically a JSON error body.
type ContentTypeError struct {
	Format      Format
	ContentType string
	Message     string
}

func (e *ContentTypeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("expected a %s file but the server sent %q", e.Format, e.ContentType)
}

// ReportFilter narrows a report; zero fields are omitted from the query.
type ReportFilter struct {
	From          time.Time
	To            time.Time
	AccountNumber string
	Type          string
	Status        string
	Page          int
	Limit         int
}

func (f ReportFilter) Values() url.Values {
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("from_date", f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		q.Set("to_date", f.To.Format(dateLayout))
	}
	if f.AccountNumber != "" {
		q.Set("account_number", f.AccountNumber)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func (c *Client) TransactionHistory(ctx context.Context, filter ReportFilter) (*models.TransactionHistory, error) {
	var history models.TransactionHistory
	r := request{method: http.MethodGet, path: "/reports/" + ReportTransactionHistory, query: filter.Values()}
	if err := c.do(ctx, r, nil, &history); err != nil {
		return nil, fmt.Errorf("unable to load transaction history: %w", err)
	}
	return &history, nil
}

func (c *Client) AccountStatement(ctx context.Context, filter ReportFilter) (*models.AccountStatement, error) {
	var statement models.AccountStatement
	r := request{method: http.MethodGet, path: "/reports/" + ReportAccountStatement, query: filter.Values()}
	if err := c.do(ctx, r, nil, &statement); err != nil {
		return nil, fmt.Errorf("unable to load account statement: %w", err)
	}
	return &statement, nil
}

// Download is a report file whose media type has been checked.
type Download struct {
	ContentType string
	Body        []byte
}

// DownloadReport fetches report in the given format. The payload is only
// returned when the Content-Type matches the format.
func (c *Client) DownloadReport(ctx context.Context, report string, format Format, filter ReportFilter) (*Download, error) {
	accepted := format.AcceptedContentTypes()
	if len(accepted) == 0 {
		return nil, fmt.Errorf("unsupported report format %q", format)
	}

	r := request{
		method: http.MethodGet,
		path:   "/reports/" + report + "/download/" + string(format),
		query:  filter.Values(),
		accept: strings.Join(accepted, ", "),
	}
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeEnvelope(resp, r.path, nil)
	}

	mediaType := resp.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}

	if !contains(accepted, mediaType) {
		ctErr := &ContentTypeError{Format: format, ContentType: mediaType}
		if mediaType == "application/json" {
			ctErr.Message = downloadErrorMessage(resp.Body)
		}
		zap.L().Warn("Download returned unexpected content type",
			zap.String("report", report),
			zap.String("format", string(format)),
			zap.String("content_type", mediaType))
		return nil, ctErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: r.method, Path: r.path, Err: err}
	}

	return &Download{ContentType: mediaType, Body: body}, nil
}

func downloadErrorMessage(body io.Reader) string {
	var env models.Envelope
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBodyBytes)).Decode(&env); err != nil {
		return ""
	}
	if env.Success {
		return ""
	}
	return envelopeMessage(env)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
