package reports

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	download    *api.Download
	downloadErr error
	lastFilter  api.ReportFilter
}

func (f *fakeBackend) TransactionHistory(_ context.Context, filter api.ReportFilter) (*models.TransactionHistory, error) {
	f.lastFilter = filter
	return &models.TransactionHistory{Total: 1}, nil
}

func (f *fakeBackend) AccountStatement(_ context.Context, filter api.ReportFilter) (*models.AccountStatement, error) {
	f.lastFilter = filter
	return &models.AccountStatement{AccountNumber: filter.AccountNumber}, nil
}

func (f *fakeBackend) DownloadReport(_ context.Context, _ string, _ api.Format, filter api.ReportFilter) (*api.Download, error) {
	f.lastFilter = filter
	return f.download, f.downloadErr
}

func januaryFilter() api.ReportFilter {
	return api.ReportFilter{
		From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "transaction-history-2025-01-01-2025-01-31.pdf",
		Filename(api.ReportTransactionHistory, api.FormatPDF, januaryFilter()))
	assert.Equal(t, "mt5-account-statement-all-all.xlsx",
		Filename(api.ReportAccountStatement, api.FormatExcel, api.ReportFilter{}))
}

func TestDownload_WritesFile(t *testing.T) {
	dir := t.TempDir()
	backend := &fakeBackend{download: &api.Download{ContentType: "application/pdf", Body: []byte("%PDF-1.7")}}
	svc := NewService(backend, dir)

	path, err := svc.Download(context.Background(), api.ReportTransactionHistory, api.FormatPDF, januaryFilter(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transaction-history-2025-01-01-2025-01-31.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
}

func TestDownload_ContentTypeMismatchWritesNothing(t *testing.T) {
	dir := t.TempDir()
	backend := &fakeBackend{downloadErr: &api.ContentTypeError{Format: api.FormatPDF, ContentType: "application/json", Message: "No data"}}
	svc := NewService(backend, dir)

	_, err := svc.Download(context.Background(), api.ReportTransactionHistory, api.FormatPDF, januaryFilter(), "")
	require.Error(t, err)
	assert.Equal(t, "No data", err.Error())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownload_Validation(t *testing.T) {
	svc := NewService(&fakeBackend{}, t.TempDir())
	ctx := context.Background()

	_, err := svc.Download(ctx, "profit", api.FormatPDF, api.ReportFilter{}, "")
	assert.ErrorIs(t, err, ErrUnknownReport)

	_, err = svc.Download(ctx, api.ReportAccountStatement, api.FormatPDF, api.ReportFilter{}, "")
	assert.ErrorIs(t, err, ErrAccountRequired)

	reversed := januaryFilter()
	reversed.From, reversed.To = reversed.To, reversed.From
	_, err = svc.Download(ctx, api.ReportTransactionHistory, api.FormatExcel, reversed, "")
	assert.Error(t, err)
}

func TestAccountStatement(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, "")

	_, err := svc.AccountStatement(context.Background(), api.ReportFilter{})
	assert.ErrorIs(t, err, ErrAccountRequired)

	statement, err := svc.AccountStatement(context.Background(), api.ReportFilter{AccountNumber: "1001"})
	require.NoError(t, err)
	assert.Equal(t, "1001", statement.AccountNumber)
	assert.Equal(t, "1001", backend.lastFilter.AccountNumber)
}
