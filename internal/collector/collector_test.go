package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"wio-csv/internal/driver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver scripts the visible items per pass. When passes run out it keeps
// returning the last pass, mimicking a list that stopped moving.
type fakeDriver struct {
	passes      [][]driver.Item
	pos         int
	scrollCalls int
	readErrs    []error // consumed one per VisibleItems call before any items are returned
	scrollErrs  []error
	bottomAfter int // Scroll returns false once this many scrolls happened (0 = never)
}

func (f *fakeDriver) VisibleItems(ctx context.Context) ([]driver.Item, error) {
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	idx := f.pos
	if idx >= len(f.passes) {
		idx = len(f.passes) - 1
	}
	return f.passes[idx], nil
}

func (f *fakeDriver) Scroll(ctx context.Context) (bool, error) {
	if len(f.scrollErrs) > 0 {
		err := f.scrollErrs[0]
		f.scrollErrs = f.scrollErrs[1:]
		if err != nil {
			return false, err
		}
	}
	f.scrollCalls++
	if f.bottomAfter > 0 && f.scrollCalls >= f.bottomAfter {
		return false, nil
	}
	if f.pos < len(f.passes)-1 {
		f.pos++
	}
	return true, nil
}

func item(fragments ...string) driver.Item {
	return driver.NewStaticItem(fragments...)
}

func fastOptions() Options {
	return Options{
		MaxPasses:        20,
		StallThreshold:   3,
		RetryAttempts:    3,
		RetryDelay:       time.Millisecond,
		MergeDateContext: true,
	}
}

func TestCollectDeduplicatesAcrossPasses(t *testing.T) {
	d := &fakeDriver{passes: [][]driver.Item{
		{
			item("SUN, 5 OCTOBER"),
			item("Carrefour", "-45.50 AED", "Shopping"),
			item("Careem", "-23.00 AED", "Transport"),
		},
		{
			// Partial overlap from scroll-position jitter.
			item("SUN, 5 OCTOBER"),
			item("Careem", "-23.00 AED", "Transport"),
			item("Starbucks", "-18.00 AED", "Restaurants"),
		},
	}}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "Carrefour", records[0].Description)
	assert.Equal(t, "Careem", records[1].Description)
	assert.Equal(t, "Starbucks", records[2].Description)
}

func TestCollectPreservesFirstSeenOrder(t *testing.T) {
	d := &fakeDriver{passes: [][]driver.Item{
		{item("A", "-1.00 AED"), item("B", "-2.00 AED")},
		{item("B", "-2.00 AED"), item("C", "-3.00 AED")},
		{item("C", "-3.00 AED"), item("A", "-1.00 AED")},
	}}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3)
	// Later re-encounters of A and B never reorder them.
	assert.Equal(t, "A", records[0].Description)
	assert.Equal(t, "B", records[1].Description)
	assert.Equal(t, "C", records[2].Description)
}

func TestCollectMergesDateContext(t *testing.T) {
	d := &fakeDriver{passes: [][]driver.Item{
		{
			item("SUN, 5 OCTOBER"),
			item("Carrefour", "-45.50 AED", "Shopping"),
			item("TUE, 30 SEPTEMBER"),
			item("Careem", "-23.00 AED"),
		},
	}}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "SUN, 5 OCTOBER", records[0].Date)
	assert.Equal(t, "TUE, 30 SEPTEMBER", records[1].Date)
}

func TestCollectDateContextDisabled(t *testing.T) {
	d := &fakeDriver{passes: [][]driver.Item{
		{
			item("SUN, 5 OCTOBER"),
			item("Carrefour", "-45.50 AED"),
		},
	}}

	opts := fastOptions()
	opts.MergeDateContext = false

	records, err := New(d, opts, nil).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Empty(t, records[0].Date)
}

func TestCollectStopsAfterStallThreshold(t *testing.T) {
	// A single pass that never changes: pass 1 finds one record, passes 2-4
	// find nothing new.
	d := &fakeDriver{passes: [][]driver.Item{
		{item("Carrefour", "-45.50 AED")},
	}}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)

	assert.Len(t, records, 1)
	// One scroll after each of the first three passes; the run stops once the
	// third consecutive empty pass is seen, without scrolling again.
	assert.Equal(t, 3, d.scrollCalls)
}

func TestCollectStopsAtBottomSentinel(t *testing.T) {
	d := &fakeDriver{
		passes: [][]driver.Item{
			{item("A", "-1.00 AED")},
			{item("B", "-2.00 AED")},
			{item("C", "-3.00 AED")},
		},
		bottomAfter: 1,
	}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)

	// New records kept arriving, but the driver said the content no longer
	// changes after the first scroll.
	assert.Len(t, records, 1)
}

func TestCollectTerminatesAtMaxPasses(t *testing.T) {
	// Every pass reveals a fresh record and the driver never reports bottom,
	// so only the pass bound can stop the run.
	passes := make([][]driver.Item, 100)
	for i := range passes {
		passes[i] = []driver.Item{item(string(rune('A'+i%26))+"x", "-1.00 AED")}
	}
	d := &fakeDriver{passes: passes}

	opts := fastOptions()
	opts.MaxPasses = 5
	opts.StallThreshold = 99

	records, err := New(d, opts, nil).Collect(context.Background())
	require.NoError(t, err)

	assert.Len(t, records, 5)
	assert.Equal(t, 4, d.scrollCalls, "no scroll after the final pass")
}

func TestCollectRetriesTransientReadFailure(t *testing.T) {
	d := &fakeDriver{
		passes:   [][]driver.Item{{item("Carrefour", "-45.50 AED")}},
		readErrs: []error{driver.ErrScrollTimeout, driver.ErrScrollTimeout, nil},
	}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCollectRetriesTransientScrollFailure(t *testing.T) {
	d := &fakeDriver{
		passes: [][]driver.Item{
			{item("A", "-1.00 AED")},
			{item("B", "-2.00 AED")},
		},
		scrollErrs: []error{driver.ErrScrollTimeout, nil},
	}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)

	// The timed-out scroll was retried, so the second pass was still reached.
	assert.Len(t, records, 2)
}

func TestCollectAbortsOnPersistentScrollFailure(t *testing.T) {
	d := &fakeDriver{
		passes: [][]driver.Item{{item("Carrefour", "-45.50 AED")}},
		scrollErrs: []error{
			driver.ErrScrollTimeout,
			driver.ErrScrollTimeout,
			driver.ErrScrollTimeout,
		},
	}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())

	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, "scroll failed", aborted.Reason)
	assert.Equal(t, 1, aborted.Pass)
	assert.ErrorIs(t, err, driver.ErrScrollTimeout)
	assert.Len(t, records, 1)
}

func TestCollectAbortsOnPersistentFailureWithPartialResults(t *testing.T) {
	failures := make([]error, 0, 16)
	for i := 0; i < 16; i++ {
		failures = append(failures, driver.ErrDriverUnavailable)
	}
	d := &fakeDriver{
		passes:   [][]driver.Item{{item("Carrefour", "-45.50 AED")}},
		readErrs: append([]error{nil}, failures...), // first pass succeeds, then the session dies
	}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())

	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, 2, aborted.Pass)
	assert.ErrorIs(t, err, driver.ErrDriverUnavailable)
	// Partial results survive the abort.
	assert.Len(t, records, 1)
}

func TestCollectAbortsWhenCanceled(t *testing.T) {
	d := &fakeDriver{passes: [][]driver.Item{{item("Carrefour", "-45.50 AED")}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := New(d, fastOptions(), nil).Collect(ctx)

	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, records)
}

func TestCollectCountsDuplicatesSeparatelyFromStall(t *testing.T) {
	// Each pass shows the same record plus one fresh one: duplicates must not
	// trip the stall counter while new records keep appearing.
	d := &fakeDriver{passes: [][]driver.Item{
		{item("A", "-1.00 AED")},
		{item("A", "-1.00 AED"), item("B", "-2.00 AED")},
		{item("A", "-1.00 AED"), item("C", "-3.00 AED")},
	}}

	records, err := New(d, fastOptions(), nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestCollectErrorMessage(t *testing.T) {
	err := &AbortedError{Reason: "scroll failed", Pass: 4, Err: errors.New("boom")}
	assert.Contains(t, err.Error(), "pass 4")
	assert.Contains(t, err.Error(), "scroll failed")
}
