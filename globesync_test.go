package globesync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/logging"
	"github.com/peakatlas/globesync/pkg/records"
	"github.com/peakatlas/globesync/pkg/scene"
	"github.com/peakatlas/globesync/pkg/scene/memory"
)

// adapterOf unwraps the default in-memory adapter backing a test client.
func adapterOf(t *testing.T, c Client) *memory.Adapter {
	t.Helper()
	a, ok := c.(*client).adapter.(*memory.Adapter)
	require.True(t, ok)
	return a
}

// datasetServer serves a mutable GeoJSON FeatureCollection and can be
// switched into a failure mode.
type datasetServer struct {
	mu      sync.Mutex
	records []records.Record
	failing bool
	delay   time.Duration
	srv     *httptest.Server
}

func newDatasetServer(recs ...records.Record) *datasetServer {
	ds := &datasetServer{records: recs}
	ds.srv = httptest.NewServer(http.HandlerFunc(ds.handle))
	return ds
}

func (ds *datasetServer) handle(w http.ResponseWriter, _ *http.Request) {
	ds.mu.Lock()
	failing := ds.failing
	delay := ds.delay
	recs := make([]records.Record, len(ds.records))
	copy(recs, ds.records)
	ds.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failing {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	features := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		props := map[string]any{
			"id":      int64(rec.ID),
			"name":    rec.Name,
			"country": rec.Country,
		}
		for k, v := range rec.Metrics {
			props[k] = v
		}
		features = append(features, map[string]any{
			"type": "Feature",
			"geometry": map[string]any{
				"type":        "Point",
				"coordinates": []float64{rec.Longitude, rec.Latitude},
			},
			"properties": props,
		})
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	})
}

func (ds *datasetServer) setRecords(recs ...records.Record) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.records = recs
}

func (ds *datasetServer) setFailing(failing bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.failing = failing
}

func (ds *datasetServer) setDelay(d time.Duration) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.delay = d
}

func (ds *datasetServer) close() {
	ds.srv.Close()
}

func testRecord(id records.ID, name string, lon, lat float64) records.Record {
	return records.Record{ID: id, Name: name, Country: "Canada", Longitude: lon, Latitude: lat}
}

func newTestClient(t *testing.T, url string, opts ...Option) Client {
	t.Helper()
	base := []Option{WithEndpoint(url), WithLogger(logging.NewNopLogger())}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// projected maps a record's coordinates through the default in-memory
// projection so tests can pick it.
func projected(rec records.Record) scene.ScreenPoint {
	return scene.ScreenPoint{
		X: (rec.Longitude + 180) / 360 * 1024,
		Y: (90 - rec.Latitude) / 180 * 512,
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New()
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRefreshConverges(t *testing.T) {
	ds := newDatasetServer(
		testRecord(1, "Whistler Blackcomb", -122.95, 50.11),
		testRecord(2, "Revelstoke", -118.16, 50.96),
	)
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)

	cs, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cs.Summary.Added)
	assert.Equal(t, 2, c.Count())

	rec, ok := c.Records()[1]
	require.True(t, ok)
	assert.Equal(t, "Whistler Blackcomb", rec.Name)

	// A second cycle against identical data mutates nothing.
	cs, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())
}

func TestRefreshRemovalsAndAdditions(t *testing.T) {
	ds := newDatasetServer(
		testRecord(1, "Whistler Blackcomb", -122.95, 50.11),
		testRecord(2, "Revelstoke", -118.16, 50.96),
	)
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)

	var added, removed []records.ID
	c.OnRecordAdded(func(rec records.Record) { added = append(added, rec.ID) })
	c.OnRecordRemoved(func(rec records.Record) { removed = append(removed, rec.ID) })

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []records.ID{1, 2}, added)

	ds.setRecords(
		testRecord(2, "Revelstoke", -118.16, 50.96),
		testRecord(3, "Big White", -118.93, 49.73),
	)

	cs, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cs.Summary.Added)
	assert.Equal(t, 1, cs.Summary.Removed)
	assert.Equal(t, []records.ID{1}, removed)
	assert.Equal(t, 2, c.Count())
}

func TestRefreshFetchErrorKeepsRenderedSet(t *testing.T) {
	ds := newDatasetServer(testRecord(1, "Whistler Blackcomb", -122.95, 50.11))
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	ds.setFailing(true)
	_, err = c.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFetchError(err))
	assert.Equal(t, 1, c.Count(), "a failed fetch must leave the rendered set intact")

	ds.setFailing(false)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count())
}

func TestRecordUpdatedHook(t *testing.T) {
	rec := testRecord(1, "Whistler Blackcomb", -122.95, 50.11)
	rec.Metrics = map[string]float64{"vertical_m": 1530}
	ds := newDatasetServer(rec)
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)

	var updates [][2]records.Record
	c.OnRecordUpdated(func(old, updated records.Record) {
		updates = append(updates, [2]records.Record{old, updated})
	})

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Empty(t, updates)

	rec.Metrics = map[string]float64{"vertical_m": 1609}
	ds.setRecords(rec)

	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, float64(1530), updates[0][0].Metrics["vertical_m"])
	assert.Equal(t, float64(1609), updates[0][1].Metrics["vertical_m"])
}

func TestSelectAndClear(t *testing.T) {
	rec := testRecord(7, "Whistler Blackcomb", -122.95, 50.11)
	ds := newDatasetServer(rec)
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	var selected []*records.Record
	c.OnSelectionChanged(func(r *records.Record) { selected = append(selected, r) })

	got, ok := c.Select(projected(rec))
	require.True(t, ok)
	assert.Equal(t, records.ID(7), got.ID)

	cur, ok := c.Selection()
	require.True(t, ok)
	assert.Equal(t, "Whistler Blackcomb", cur.Name)

	// A miss clears the selection.
	_, ok = c.Select(scene.ScreenPoint{X: 0, Y: 0})
	assert.False(t, ok)
	_, ok = c.Selection()
	assert.False(t, ok)

	require.Len(t, selected, 2)
	require.NotNil(t, selected[0])
	assert.Equal(t, records.ID(7), selected[0].ID)
	assert.Nil(t, selected[1])
}

func TestClearSelection(t *testing.T) {
	rec := testRecord(1, "Revelstoke", -118.16, 50.96)
	ds := newDatasetServer(rec)
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	_, ok := c.Select(projected(rec))
	require.True(t, ok)

	c.ClearSelection()
	_, ok = c.Selection()
	assert.False(t, ok)

	// Clearing an empty selection is a no-op.
	fired := 0
	c.OnSelectionChanged(func(*records.Record) { fired++ })
	c.ClearSelection()
	assert.Zero(t, fired)
}

func TestSelectionClearedWhenRecordRemoved(t *testing.T) {
	rec := testRecord(1, "Revelstoke", -118.16, 50.96)
	other := testRecord(2, "Big White", -118.93, 49.73)
	ds := newDatasetServer(rec, other)
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	_, ok := c.Select(projected(rec))
	require.True(t, ok)

	var cleared bool
	c.OnSelectionChanged(func(r *records.Record) { cleared = r == nil })

	ds.setRecords(other)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)

	_, ok = c.Selection()
	assert.False(t, ok, "selection must not survive its record's removal")
	assert.True(t, cleared)

	// The surviving record is unaffected.
	assert.Equal(t, 1, c.Count())
}

func TestCloseIsIdempotent(t *testing.T) {
	ds := newDatasetServer()
	defer ds.close()

	c := newTestClient(t, ds.srv.URL)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.ErrorIs(t, c.AutoRefreshOn(), errors.ErrClosed)
}

func TestAutoRefreshPolls(t *testing.T) {
	ds := newDatasetServer(testRecord(1, "Whistler Blackcomb", -122.95, 50.11))
	defer ds.close()

	c := newTestClient(t, ds.srv.URL, WithPollInterval(10*time.Millisecond))
	require.NoError(t, c.AutoRefreshOn())

	require.Eventually(t, func() bool {
		return c.Count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	ds.setRecords()
	require.Eventually(t, func() bool {
		return c.Count() == 0
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.AutoRefreshOff())
}

func TestAutoRefreshRejectsBadInterval(t *testing.T) {
	ds := newDatasetServer()
	defer ds.close()

	c := newTestClient(t, ds.srv.URL, WithPollInterval(-time.Second))
	err := c.AutoRefreshOn()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestAutoRefreshSingleFlight(t *testing.T) {
	ds := newDatasetServer(testRecord(1, "Whistler Blackcomb", -122.95, 50.11))
	defer ds.close()

	// Each fetch takes far longer than the poll interval, so most ticks
	// must be skipped instead of piling up concurrent cycles.
	ds.setDelay(80 * time.Millisecond)

	c := newTestClient(t, ds.srv.URL, WithPollInterval(5*time.Millisecond))
	require.NoError(t, c.AutoRefreshOn())

	skipped := c.(*client).metrics.Cycles.WithLabelValues(metrics.ResultSkipped)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(skipped) > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.AutoRefreshOff())
}

func TestWithInitialView(t *testing.T) {
	ds := newDatasetServer()
	defer ds.close()

	view := scene.View{Longitude: -106.35, Latitude: 56.13, Height: 4_000_000}
	c := newTestClient(t, ds.srv.URL, WithInitialView(view))

	// The default in-memory adapter records the last FlyTo target.
	got, ok := adapterOf(t, c).LastView()
	require.True(t, ok)
	assert.Equal(t, view.Longitude, got.Longitude)
}
