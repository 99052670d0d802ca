package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/records"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-122.9, 48.1]},
      "properties": {
        "id": 1,
        "name": "Mount Baker",
        "region": "Washington",
        "nearest_city": "Bellingham",
        "country": "USA",
        "vertical_drop_m": 455,
        "num_runs": 38
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-116.2, 51.4]},
      "properties": {"id": 2, "name": "Lake Louise", "province": "Alberta", "country": "Canada"}
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {"id": 3, "name": "No Geometry Yet"}
    }
  ]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL + "/api/geojson/ski_resorts")
	require.NoError(t, err)
	return srv, client
}

func TestNewValidatesEndpoint(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestSnapshotMapsFeatures(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleCollection))
	})

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)

	// The geometry-less feature is excluded, not errored.
	require.Equal(t, 2, snapshot.Len())
	assert.Equal(t, []records.ID{1, 2}, snapshot.IDs())

	baker := snapshot[1]
	assert.Equal(t, "Mount Baker", baker.Name)
	assert.Equal(t, "Washington", baker.Region)
	assert.Equal(t, "Bellingham", baker.Place)
	assert.Equal(t, "USA", baker.Country)
	assert.InDelta(t, -122.9, baker.Longitude, 1e-9)
	assert.InDelta(t, 48.1, baker.Latitude, 1e-9)
	assert.Equal(t, map[string]float64{"vertical_drop_m": 455, "num_runs": 38}, baker.Metrics)

	louise := snapshot[2]
	assert.Equal(t, "Alberta", louise.Region, "province should map to region")
	assert.Nil(t, louise.Metrics)
}

func TestSnapshotSkipsNonPointGeometry(t *testing.T) {
	payload := `{
	  "type": "FeatureCollection",
	  "features": [
	    {
	      "type": "Feature",
	      "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]},
	      "properties": {"id": 1, "name": "A Trail"}
	    },
	    {
	      "type": "Feature",
	      "geometry": {"type": "Point", "coordinates": [10, 20]},
	      "properties": {"id": 2, "name": "A Point"}
	    }
	  ]
	}`
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []records.ID{2}, snapshot.IDs())
}

func TestSnapshotSkipsFeaturesWithoutID(t *testing.T) {
	payload := `{
	  "type": "FeatureCollection",
	  "features": [
	    {
	      "type": "Feature",
	      "geometry": {"type": "Point", "coordinates": [10, 20]},
	      "properties": {"name": "Anonymous"}
	    }
	  ]
	}`
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.Len())
}

func TestSnapshotTopLevelFeatureID(t *testing.T) {
	payload := `{
	  "type": "FeatureCollection",
	  "features": [
	    {
	      "type": "Feature",
	      "id": 9,
	      "geometry": {"type": "Point", "coordinates": [10, 20]},
	      "properties": {"name": "Top-level id"}
	    }
	  ]
	}`
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []records.ID{9}, snapshot.IDs())
}

func TestSnapshotNonSuccessStatus(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFetchError(err))

	var fe *errors.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
}

func TestSnapshotMalformedPayload(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type": "FeatureCollection", "features": [`))
	})

	_, err := client.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFetchError(err), "malformed payloads surface as recoverable fetch errors")
}

func TestSnapshotTransportFailure(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	srv.Close()

	_, err := client.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFetchError(err))
}

func TestSnapshotContextCancellation(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Snapshot(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsFetchError(err))
}

func TestSnapshotCustomHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"type": "FeatureCollection", "features": []}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, WithHeader("Authorization", "Bearer token"))
	require.NoError(t, err)

	_, err = client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", gotAuth)
}
