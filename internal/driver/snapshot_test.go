package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotOne = `<?xml version="1.0" encoding="UTF-8"?>
<AppiumAUT>
  <XCUIElementTypeApplication name="Wio">
    <XCUIElementTypeStaticText visible="true" value="SUN, 5 OCTOBER"/>
    <XCUIElementTypeStaticText visible="true" value="Carrefour&#10;Shopping&#10;-45.50 AED"/>
    <XCUIElementTypeStaticText visible="false" value="Offscreen row"/>
  </XCUIElementTypeApplication>
</AppiumAUT>`

const snapshotTwo = `<?xml version="1.0" encoding="UTF-8"?>
<AppiumAUT>
  <XCUIElementTypeApplication name="Wio">
    <XCUIElementTypeStaticText visible="true" value="Careem&#10;-23.00 AED"/>
  </XCUIElementTypeApplication>
</AppiumAUT>`

func writeSnapshots(t *testing.T, contents ...string) string {
	t.Helper()
	dir := t.TempDir()
	names := []string{"pass_01.xml", "pass_02.xml", "pass_03.xml", "pass_04.xml"}
	for i, content := range contents {
		require.NoError(t, os.WriteFile(filepath.Join(dir, names[i]), []byte(content), 0644))
	}
	return dir
}

func TestSnapshotDriverVisibleItems(t *testing.T) {
	dir := writeSnapshots(t, snapshotOne)

	d, err := NewSnapshotDriver(dir, "", nil)
	require.NoError(t, err)

	items, err := d.VisibleItems(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2, "invisible elements are excluded")
	assert.Equal(t, []string{"SUN, 5 OCTOBER"}, items[0].TextFragments())
	assert.Equal(t, []string{"Carrefour", "Shopping", "-45.50 AED"}, items[1].TextFragments())
}

func TestSnapshotDriverScrollAdvances(t *testing.T) {
	dir := writeSnapshots(t, snapshotOne, snapshotTwo)

	d, err := NewSnapshotDriver(dir, "", nil)
	require.NoError(t, err)

	changed, err := d.Scroll(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	items, err := d.VisibleItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"Careem", "-23.00 AED"}, items[0].TextFragments())

	// No further snapshots: bottom of list.
	changed, err = d.Scroll(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSnapshotDriverIdenticalDumpIsBottom(t *testing.T) {
	dir := writeSnapshots(t, snapshotOne, snapshotTwo, snapshotTwo)

	d, err := NewSnapshotDriver(dir, "", nil)
	require.NoError(t, err)

	changed, err := d.Scroll(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = d.Scroll(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "unchanged content is the bottom sentinel")
}

func TestSnapshotDriverMissingDir(t *testing.T) {
	_, err := NewSnapshotDriver(filepath.Join(t.TempDir(), "nope"), "", nil)
	assert.ErrorIs(t, err, ErrDriverUnavailable)
}

func TestSnapshotDriverEmptyDir(t *testing.T) {
	_, err := NewSnapshotDriver(t.TempDir(), "", nil)
	assert.ErrorIs(t, err, ErrDriverUnavailable)
}

func TestSnapshotDriverCanceledContext(t *testing.T) {
	dir := writeSnapshots(t, snapshotOne)

	d, err := NewSnapshotDriver(dir, "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.VisibleItems(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
