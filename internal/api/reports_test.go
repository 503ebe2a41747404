package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadReport_RejectsJSONForPDF(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/transaction-history/download/pdf", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "No transactions in range"})
	})

	download, err := client.DownloadReport(sessionContext(), ReportTransactionHistory, FormatPDF, ReportFilter{})
	require.Error(t, err)
	assert.Nil(t, download)

	var ctErr *ContentTypeError
	require.True(t, errors.As(err, &ctErr))
	assert.Equal(t, "application/json", ctErr.ContentType)
	assert.Equal(t, "No transactions in range", ctErr.Error())
}

func TestDownloadReport_RejectsHTML(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html></html>"))
	})

	_, err := client.DownloadReport(sessionContext(), ReportAccountStatement, FormatExcel, ReportFilter{})
	var ctErr *ContentTypeError
	require.True(t, errors.As(err, &ctErr))
	assert.Equal(t, "text/html", ctErr.ContentType)
	assert.Contains(t, ctErr.Error(), "excel")
}

func TestDownloadReport_AcceptsMatchingTypes(t *testing.T) {
	tests := []struct {
		name        string
		format      Format
		contentType string
	}{
		{"pdf", FormatPDF, "application/pdf"},
		{"xlsx", FormatExcel, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"legacy xls", FormatExcel, "application/vnd.ms-excel"},
		{"pdf with params", FormatPDF, "application/pdf; name=report.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "2025-01-01", r.URL.Query().Get("from_date"))
				assert.Equal(t, "2025-01-31", r.URL.Query().Get("to_date"))
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte("file-bytes"))
			})

			filter := ReportFilter{
				From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			}
			download, err := client.DownloadReport(sessionContext(), ReportTransactionHistory, tt.format, filter)
			require.NoError(t, err)
			assert.Equal(t, "file-bytes", string(download.Body))
		})
	}
}

func TestDownloadReport_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Account not found"})
	})

	_, err := client.DownloadReport(sessionContext(), ReportAccountStatement, FormatPDF, ReportFilter{AccountNumber: "9"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Account not found", apiErr.Message)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		expected Format
		wantErr  bool
	}{
		{"pdf", FormatPDF, false},
		{"PDF", FormatPDF, false},
		{"excel", FormatExcel, false},
		{"xlsx", FormatExcel, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReportFilterValues(t *testing.T) {
	q := ReportFilter{AccountNumber: "1001", Page: 2, Limit: 50, Type: "deposit"}.Values()
	assert.Equal(t, "1001", q.Get("account_number"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "50", q.Get("limit"))
	assert.Equal(t, "deposit", q.Get("type"))
	assert.Empty(t, q.Get("from_date"))
}
