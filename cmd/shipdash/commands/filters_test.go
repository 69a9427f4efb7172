package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterFlags_FileThenOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"startDate": "2021-01-01",
		"endDate": "2021-12-31",
		"deliveryStatus": ["Late delivery"],
		"customerCountry": ["France"]
	}`), 0644))

	f := filterFlags{file: path, end: "2021-06-30", countries: []string{"Spain", "Italy"}}
	require.True(t, f.given())

	got, err := f.load()
	require.NoError(t, err)
	assert.Equal(t, "2021-01-01", got.StartDate)
	assert.Equal(t, "2021-06-30", got.EndDate)
	assert.Equal(t, []string{"Late delivery"}, got.DeliveryStatus)
	assert.Equal(t, []string{"Spain", "Italy"}, got.CustomerCountry)
	assert.Nil(t, got.Category)
}

func TestFilterFlags_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := (&filterFlags{file: filepath.Join(dir, "missing.json")}).load()
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"startDate": `), 0644))
	_, err = (&filterFlags{file: bad}).load()
	assert.Error(t, err)
}

func TestFilterFlags_NotGiven(t *testing.T) {
	assert.False(t, (&filterFlags{}).given())
}

func TestWatchFilters_CallsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filters.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFilters(ctx, path, func() { changed <- struct{}{} })
	}()

	// Writes to other files in the directory are ignored; the target file triggers a callback.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644)
		_ = os.WriteFile(path, []byte(`{"startDate": "2022-01-01"}`), 0644)
		select {
		case <-changed:
			return true
		case <-time.After(300 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
