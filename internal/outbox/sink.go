// Package outbox records "sent" emails to an append-only JSON Lines log
// instead of delivering them.
package outbox

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSendFailure is returned when an entry cannot be durably appended
var ErrSendFailure = errors.New("outbox send failure")

// StatusOK is the status of an acknowledged entry
const StatusOK = "ok"

// Entry is one line of the outbox log
type Entry struct {
	Timestamp   string   `json:"timestamp"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

// Receipt acknowledges an appended entry. ID is the entry timestamp.
type Receipt struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// FileSink appends entries to a file. Appends from concurrent runs are
// serialized and each entry is a single write on an O_APPEND descriptor.
type FileSink struct {
	path   string
	sender string
	logger *zap.Logger

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// Option configures a FileSink
type Option func(*FileSink)

// WithClock replaces the wall clock, for tests
func WithClock(now func() time.Time) Option {
	return func(s *FileSink) {
		s.now = now
	}
}

// NewFileSink creates a sink writing to path with a fixed sender identity
func NewFileSink(path, sender string, logger *zap.Logger, opts ...Option) *FileSink {
	s := &FileSink{
		path:   path,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the log file location
func (s *FileSink) Path() string {
	return s.path
}

// nextTimestamp returns a UTC time strictly after the previous one, so
// receipt ids from one sink never collide. Callers hold mu.
func (s *FileSink) nextTimestamp() time.Time {
	ts := s.now().UTC()
	if !ts.After(s.last) {
		ts = s.last.Add(time.Nanosecond)
	}
	s.last = ts
	return ts
}

// Record appends one entry and returns its receipt
func (s *FileSink) Record(ctx context.Context, to, subject, body string, attachments []string) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailure, err)
	}
	if attachments == nil {
		attachments = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		Timestamp:   s.nextTimestamp().Format(time.RFC3339Nano),
		From:        s.sender,
		To:          to,
		Subject:     subject,
		Body:        body,
		Attachments: attachments,
	}

	var line bytes.Buffer
	enc := json.NewEncoder(&line)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return nil, fmt.Errorf("%w: encode entry: %v", ErrSendFailure, err)
	}

	if err := s.append(line.Bytes()); err != nil {
		s.logger.Error("Failed to append outbox entry",
			zap.String("path", s.path),
			zap.String("to", to),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSendFailure, err)
	}

	s.logger.Info("Email recorded to outbox",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("attachments", len(attachments)),
		zap.String("id", entry.Timestamp))

	return &Receipt{Status: StatusOK, ID: entry.Timestamp}, nil
}

func (s *FileSink) append(line []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create outbox directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}

	if err := appendLine(f, line); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync outbox: %w", err)
	}
	return f.Close()
}

type appendFile interface {
	io.Writer
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
}

// appendLine writes line in full or cuts the file back to its previous size,
// so a failed append never leaves a partial line behind
func appendLine(f appendFile, line []byte) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat outbox: %w", err)
	}

	if _, err := f.Write(line); err != nil {
		if terr := f.Truncate(info.Size()); terr != nil {
			return fmt.Errorf("write outbox: %w (rollback failed: %v)", err, terr)
		}
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

// Entries reads the log back in append order. A missing log has no entries.
func (s *FileSink) Entries(ctx context.Context) ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open outbox: %w", err)
	}
	defer f.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("outbox line %d: %w", n, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read outbox: %w", err)
	}

	return entries, nil
}
