// Package collector drives the scroll-and-read loop that lifts transaction
// records out of the virtualized history list. The list re-renders rows with
// partial overlap between scroll positions, so the collector owns the dedup
// set and the stop conditions that bound the run.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wio-csv/internal/driver"
	"wio-csv/internal/labelparser"
	"wio-csv/internal/logging"
	"wio-csv/internal/models"
)

// Options bounds a collection run. Zero values fall back to defaults that
// match the app's observed scroll jitter.
type Options struct {
	// MaxPasses is the safety bound on read/scroll cycles.
	MaxPasses int
	// StallThreshold is the number of consecutive passes with zero newly
	// discovered records after which the run stops. A single empty pass is
	// not enough: scroll-position imprecision routinely re-shows only
	// already-seen rows for one pass.
	StallThreshold int
	// RetryAttempts bounds retries of a failing driver call.
	RetryAttempts int
	// RetryDelay is the wait between retries.
	RetryDelay time.Duration
	// MergeDateContext applies a pass's last seen date header to records
	// that carry no date of their own. Disable for layouts where every row
	// renders its own date.
	MergeDateContext bool
}

// DefaultOptions are the bounds used when a field is left at its zero value.
var DefaultOptions = Options{
	MaxPasses:        50,
	StallThreshold:   3,
	RetryAttempts:    3,
	RetryDelay:       500 * time.Millisecond,
	MergeDateContext: true,
}

func (o Options) withDefaults() Options {
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultOptions.MaxPasses
	}
	if o.StallThreshold <= 0 {
		o.StallThreshold = DefaultOptions.StallThreshold
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = DefaultOptions.RetryAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultOptions.RetryDelay
	}
	return o
}

// AbortedError is the fatal outcome of a collection run: the driver session
// failed past the retry bound or the run was canceled. The records collected
// before the failure are still returned alongside it.
type AbortedError struct {
	Reason string
	Pass   int
	Err    error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("collection aborted on pass %d: %s: %v", e.Pass, e.Reason, e.Err)
}

func (e *AbortedError) Unwrap() error {
	return e.Err
}

// Collector runs the read-visible, parse, dedup, scroll cycle against a
// driver until a stop condition fires.
type Collector struct {
	driver driver.Driver
	opts   Options
	logger logging.Logger
}

// New creates a Collector. A nil logger gets a default adapter.
func New(d driver.Driver, opts Options, logger logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Collector{
		driver: d,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Collect returns the distinct transactions in first-seen order. On a fatal
// driver failure it returns what was accumulated so far together with an
// *AbortedError. Cancellation is honored between passes only, so the dedup
// state is never left half-applied.
func (c *Collector) Collect(ctx context.Context) ([]models.Transaction, error) {
	seen := make(map[string]struct{})
	var ordered []models.Transaction
	stall := 0
	duplicates := 0

	for pass := 1; pass <= c.opts.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return ordered, &AbortedError{Reason: "run canceled", Pass: pass, Err: err}
		}

		items, err := c.readVisible(ctx)
		if err != nil {
			return ordered, &AbortedError{Reason: "reading visible items failed", Pass: pass, Err: err}
		}

		newCount := 0
		dateContext := ""
		for _, item := range items {
			result := labelparser.Parse(item.TextFragments())
			switch result.Kind {
			case labelparser.KindDateHeader:
				dateContext = result.Date

			case labelparser.KindSkip:
				c.logger.Debug("Skipping non-transaction item",
					logging.Field{Key: logging.FieldReason, Value: result.Reason})

			case labelparser.KindRecord:
				record := result.Record
				if c.opts.MergeDateContext && record.Date == "" {
					record.Date = dateContext
				}

				key := record.Key()
				if _, dup := seen[key]; dup {
					duplicates++
					continue
				}
				seen[key] = struct{}{}
				ordered = append(ordered, record)
				newCount++

				c.logger.Info("New transaction",
					logging.Field{Key: logging.FieldDescription, Value: record.Description},
					logging.Field{Key: logging.FieldAmount, Value: record.Amount.StringFixed(2)},
					logging.Field{Key: logging.FieldCurrency, Value: record.Currency})
			}
		}

		if newCount == 0 {
			stall++
		} else {
			stall = 0
		}

		c.logger.Info("Pass complete",
			logging.Field{Key: logging.FieldPass, Value: pass},
			logging.Field{Key: logging.FieldCount, Value: len(items)},
			logging.Field{Key: logging.FieldNew, Value: newCount},
			logging.Field{Key: logging.FieldDuplicates, Value: duplicates},
			logging.Field{Key: logging.FieldStall, Value: stall})

		if stall >= c.opts.StallThreshold {
			c.logger.Info("No new transactions across consecutive passes, stopping",
				logging.Field{Key: logging.FieldStall, Value: stall})
			break
		}
		if pass == c.opts.MaxPasses {
			c.logger.Warn("Reached maximum pass count, stopping",
				logging.Field{Key: logging.FieldPass, Value: pass})
			break
		}

		changed, err := c.scroll(ctx)
		if err != nil {
			return ordered, &AbortedError{Reason: "scroll failed", Pass: pass, Err: err}
		}
		if !changed {
			c.logger.Info("Reached bottom of list, stopping",
				logging.Field{Key: logging.FieldPass, Value: pass})
			break
		}
	}

	c.logger.Info("Collection finished",
		logging.Field{Key: logging.FieldCount, Value: len(ordered)},
		logging.Field{Key: logging.FieldDuplicates, Value: duplicates})

	return ordered, nil
}

// readVisible reads the visible item set, retrying transient failures up to
// the configured bound.
func (c *Collector) readVisible(ctx context.Context) ([]driver.Item, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.RetryAttempts; attempt++ {
		items, err := c.driver.VisibleItems(ctx)
		if err == nil {
			return items, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		c.logger.Warn("Reading visible items failed, retrying",
			logging.Field{Key: logging.FieldAttempt, Value: attempt},
			logging.Field{Key: logging.FieldReason, Value: err.Error()})

		if attempt < c.opts.RetryAttempts {
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.opts.RetryAttempts, lastErr)
}

// scroll issues one scroll action with the same retry policy as readVisible.
func (c *Collector) scroll(ctx context.Context) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.RetryAttempts; attempt++ {
		changed, err := c.driver.Scroll(ctx)
		if err == nil {
			return changed, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}

		c.logger.Warn("Scroll failed, retrying",
			logging.Field{Key: logging.FieldAttempt, Value: attempt},
			logging.Field{Key: logging.FieldReason, Value: err.Error()})

		if attempt < c.opts.RetryAttempts {
			if err := c.wait(ctx); err != nil {
				return false, err
			}
		}
	}
	return false, fmt.Errorf("after %d attempts: %w", c.opts.RetryAttempts, lastErr)
}

func (c *Collector) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.opts.RetryDelay):
		return nil
	}
}
