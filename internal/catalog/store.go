// Package catalog answers read-only queries over a date-keyed directory tree of
// invoice PDFs and payment workbooks:
//
//	<root>/invoices/<YYYY-MM-DD>/Invoice_<account>_<invoiceNumber>.pdf
//	<root>/payments/<YYYY-MM-DD>/Payments_<account>.xlsx
//
// Scans are permissive. Unknown files and directories whose names are not
// calendar dates are skipped, and a missing tree yields no records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"go.uber.org/zap"
)

// Store is a file-backed record store rooted at one catalog directory
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a store for the catalog at root
func NewStore(root string, logger *zap.Logger) *Store {
	return &Store{
		root:   root,
		logger: logger,
	}
}

// Root returns the catalog root directory
func (s *Store) Root() string {
	return s.root
}

type dateDir struct {
	name string
	date time.Time
	path string
}

// dateDirs lists the date directories of a subtree in ascending date order.
// os.ReadDir sorts by name, and for YYYY-MM-DD names that is chronological.
func (s *Store) dateDirs(subtree string) ([]dateDir, error) {
	base := filepath.Join(s.root, subtree)

	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Catalog subtree missing", zap.String("path", base))
			return nil, nil
		}
		s.logger.Error("Failed to list catalog subtree", zap.String("path", base), zap.Error(err))
		return nil, fmt.Errorf("%w: list %s: %v", ErrRetrievalFailure, base, err)
	}

	dirs := make([]dateDir, 0, len(entries))
	for _, e := range entries {
		if !isDir(base, e) {
			continue
		}
		d, ok := ParseDirDate(e.Name())
		if !ok {
			s.logger.Debug("Skipping non-date directory", zap.String("name", e.Name()))
			continue
		}
		dirs = append(dirs, dateDir{name: e.Name(), date: d, path: filepath.Join(base, e.Name())})
	}

	return dirs, nil
}

// fileNames lists the non-directory entries of a date directory in name order
func (s *Store) fileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Error("Failed to list date directory", zap.String("path", dir), zap.Error(err))
		return nil, fmt.Errorf("%w: list %s: %v", ErrRetrievalFailure, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if isDir(dir, e) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// isDir reports whether the entry is a directory, following symlinks.
// A dangling link is not a directory.
func isDir(parent string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

func accountMatches(filter, account string) bool {
	return filter == "" || strings.EqualFold(filter, account)
}

// scanInvoices visits every invoice whose directory date passes keep and
// whose account matches, in directory order then file-name order
func (s *Store) scanInvoices(ctx context.Context, account string, keep func(time.Time) bool, visit func(entity.InvoiceRecord)) error {
	dirs, err := s.dateDirs(InvoicesDir)
	if err != nil {
		return err
	}

	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !keep(d.date) {
			continue
		}

		names, err := s.fileNames(d.path)
		if err != nil {
			return err
		}
		for _, name := range names {
			acc, invoiceNo, ok := ParseInvoiceFilename(name)
			if !ok || !accountMatches(account, acc) {
				continue
			}
			visit(entity.InvoiceRecord{
				Account:   acc,
				InvoiceNo: invoiceNo,
				Date:      d.name,
				Path:      filepath.Join(d.path, name),
			})
		}
	}

	return nil
}

func (s *Store) scanPayments(ctx context.Context, account string, keep func(time.Time) bool, visit func(entity.PaymentRecord)) error {
	dirs, err := s.dateDirs(PaymentsDir)
	if err != nil {
		return err
	}

	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !keep(d.date) {
			continue
		}

		names, err := s.fileNames(d.path)
		if err != nil {
			return err
		}
		for _, name := range names {
			acc, ok := ParsePaymentsFilename(name)
			if !ok || !accountMatches(account, acc) {
				continue
			}
			visit(entity.PaymentRecord{
				Account: acc,
				Date:    d.name,
				Path:    filepath.Join(d.path, name),
			})
		}
	}

	return nil
}

func within(start, end time.Time) func(time.Time) bool {
	start, end = day(start), day(end)
	return func(d time.Time) bool {
		return !d.Before(start) && !d.After(end)
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MostRecentInvoice returns the invoice from the latest date directory that
// holds a matching file, or nil when there is none. Within that directory the
// last matching file in name order wins. An empty account matches all.
func (s *Store) MostRecentInvoice(ctx context.Context, account string) (*entity.InvoiceRecord, error) {
	var latest *entity.InvoiceRecord

	err := s.scanInvoices(ctx, account, func(time.Time) bool { return true }, func(r entity.InvoiceRecord) {
		latest = &r
	})
	if err != nil {
		return nil, err
	}

	if latest == nil {
		s.logger.Info("No invoice found", zap.String("account", account))
	} else {
		s.logger.Info("Most recent invoice found",
			zap.String("account", latest.Account),
			zap.String("invoice_no", latest.InvoiceNo),
			zap.String("date", latest.Date))
	}

	return latest, nil
}

// InvoicesInPeriod returns every matching invoice dated within [start, end]
func (s *Store) InvoicesInPeriod(ctx context.Context, start, end time.Time, account string) ([]entity.InvoiceRecord, error) {
	hits := []entity.InvoiceRecord{}

	err := s.scanInvoices(ctx, account, within(start, end), func(r entity.InvoiceRecord) {
		hits = append(hits, r)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoices listed",
		zap.String("account", account),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("count", len(hits)))

	return hits, nil
}

// PaymentsInPeriod returns every matching payments workbook dated within [start, end]
func (s *Store) PaymentsInPeriod(ctx context.Context, start, end time.Time, account string) ([]entity.PaymentRecord, error) {
	hits := []entity.PaymentRecord{}

	err := s.scanPayments(ctx, account, within(start, end), func(r entity.PaymentRecord) {
		hits = append(hits, r)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payments listed",
		zap.String("account", account),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("count", len(hits)))

	return hits, nil
}
