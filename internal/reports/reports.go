// Package reports loads transaction history and MT5 statements and saves
// their PDF or Excel exports to disk.
package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/models"

	"go.uber.org/zap"
)

var (
	ErrUnknownReport   = errors.New("unknown report")
	ErrAccountRequired = errors.New("an MT5 account number is required for the account statement")
)

// Backend is the part of the REST client reports need.
type Backend interface {
	TransactionHistory(ctx context.Context, filter api.ReportFilter) (*models.TransactionHistory, error)
	AccountStatement(ctx context.Context, filter api.ReportFilter) (*models.AccountStatement, error)
	DownloadReport(ctx context.Context, report string, format api.Format, filter api.ReportFilter) (*api.Download, error)
}

type Service struct {
	backend     Backend
	downloadDir string
}

func NewService(backend Backend, downloadDir string) *Service {
	if downloadDir == "" {
		downloadDir = "."
	}
	return &Service{backend: backend, downloadDir: downloadDir}
}

func (s *Service) TransactionHistory(ctx context.Context, filter api.ReportFilter) (*models.TransactionHistory, error) {
	if err := checkRange(filter); err != nil {
		return nil, err
	}
	return s.backend.TransactionHistory(ctx, filter)
}

func (s *Service) AccountStatement(ctx context.Context, filter api.ReportFilter) (*models.AccountStatement, error) {
	if filter.AccountNumber == "" {
		return nil, ErrAccountRequired
	}
	if err := checkRange(filter); err != nil {
		return nil, err
	}
	return s.backend.AccountStatement(ctx, filter)
}

// Download fetches a report export and writes it under dir (the configured
// download directory when empty). Nothing is written when the server sends
// something other than the requested format.
func (s *Service) Download(ctx context.Context, report string, format api.Format, filter api.ReportFilter, dir string) (string, error) {
	switch report {
	case api.ReportTransactionHistory:
	case api.ReportAccountStatement:
		if filter.AccountNumber == "" {
			return "", ErrAccountRequired
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownReport, report)
	}
	if err := checkRange(filter); err != nil {
		return "", err
	}
	if dir == "" {
		dir = s.downloadDir
	}

	download, err := s.backend.DownloadReport(ctx, report, format, filter)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, Filename(report, format, filter))
	if err := writeFileAtomic(path, download.Body); err != nil {
		return "", err
	}

	zap.L().Info("Report saved",
		zap.String("report", report),
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("bytes", len(download.Body)))
	return path, nil
}

// Filename is "<report>-<from>-<to><ext>", with "all" for an open end.
func Filename(report string, format api.Format, filter api.ReportFilter) string {
	from, to := "all", "all"
	if !filter.From.IsZero() {
		from = filter.From.Format("2006-01-02")
	}
	if !filter.To.IsZero() {
		to = filter.To.Format("2006-01-02")
	}
	return fmt.Sprintf("%s-%s-%s%s", report, from, to, format.Extension())
}

func checkRange(filter api.ReportFilter) error {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return fmt.Errorf("end date %s is before start date %s",
			filter.To.Format("2006-01-02"), filter.From.Format("2006-01-02"))
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("unable to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("unable to write report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("unable to save report: %w", err)
	}
	return nil
}
