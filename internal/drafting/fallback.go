package drafting

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a primary drafting attempt when none is configured
const DefaultTimeout = 30 * time.Second

// FallbackDrafter tries a primary drafter under a deadline and uses the
// fallback's text whenever the primary fails, times out, or returns blank
type FallbackDrafter struct {
	primary  Drafter
	fallback Drafter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewFallbackDrafter chains primary and fallback
func NewFallbackDrafter(primary, fallback Drafter, timeout time.Duration, logger *zap.Logger) *FallbackDrafter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FallbackDrafter{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// Draft returns the primary draft, or the fallback draft if the primary
// could not produce one
func (d *FallbackDrafter) Draft(ctx context.Context, fetched *entity.FetchResult) (string, error) {
	primaryCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	text, err := d.primary.Draft(primaryCtx, fetched)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	d.logger.Warn("Primary drafter unavailable, using fallback",
		zap.Duration("timeout", d.timeout),
		zap.Bool("deadline_exceeded", errors.Is(primaryCtx.Err(), context.DeadlineExceeded)),
		zap.Error(err))

	return d.fallback.Draft(ctx, fetched)
}
