package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wio-csv/internal/logging"
	"wio-csv/internal/textutils"

	"gopkg.in/xmlpath.v2"
)

// DefaultLabelXPath selects the accessibility label values of the static-text
// elements the history list renders. Each matched value holds the
// newline-separated fragments of one list item.
const DefaultLabelXPath = `//XCUIElementTypeStaticText[@visible='true']/@value`

// SnapshotDriver replays a directory of page-source XML dumps, one file per
// scroll position, in lexical filename order. It makes collection runs
// reproducible without a device session.
type SnapshotDriver struct {
	files  []string
	index  int
	path   *xmlpath.Path
	logger logging.Logger
}

// NewSnapshotDriver builds a SnapshotDriver over the .xml files in dir.
// labelXPath defaults to DefaultLabelXPath when empty.
func NewSnapshotDriver(dir, labelXPath string, logger logging.Logger) (*SnapshotDriver, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if labelXPath == "" {
		labelXPath = DefaultLabelXPath
	}

	path, err := xmlpath.Compile(labelXPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile label XPath: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading snapshot dir %s: %v", ErrDriverUnavailable, dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .xml snapshots in %s", ErrDriverUnavailable, dir)
	}

	logger.Info("Loaded page-source snapshots",
		logging.Field{Key: logging.FieldCount, Value: len(files)})

	return &SnapshotDriver{
		files:  files,
		path:   path,
		logger: logger,
	}, nil
}

// VisibleItems extracts the list items visible in the current snapshot.
func (d *SnapshotDriver) VisibleItems(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := d.parseSnapshot(d.files[d.index])
	if err != nil {
		return nil, err
	}

	var items []Item
	iter := d.path.Iter(root)
	for iter.Next() {
		fragments := textutils.SplitFragments(iter.Node().String())
		if len(fragments) == 0 {
			continue
		}
		items = append(items, NewStaticItem(fragments...))
	}

	d.logger.Debug("Read visible items from snapshot",
		logging.Field{Key: logging.FieldSnapshot, Value: filepath.Base(d.files[d.index])},
		logging.Field{Key: logging.FieldCount, Value: len(items)})

	return items, nil
}

// Scroll advances to the next snapshot. It reports false once the dumps are
// exhausted or the next dump is byte-identical to the current one, mirroring
// a real driver's "content did not change" sentinel.
func (d *SnapshotDriver) Scroll(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if d.index+1 >= len(d.files) {
		return false, nil
	}

	current, err := os.ReadFile(d.files[d.index])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}
	next, err := os.ReadFile(d.files[d.index+1])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}

	d.index++
	if bytes.Equal(current, next) {
		return false, nil
	}
	return true, nil
}

func (d *SnapshotDriver) parseSnapshot(file string) (*xmlpath.Node, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: opening snapshot %s: %v", ErrDriverUnavailable, file, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			d.logger.WithError(err).Warn("Failed to close snapshot file")
		}
	}()

	root, err := xmlpath.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", file, err)
	}
	return root, nil
}
