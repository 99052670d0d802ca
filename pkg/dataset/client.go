// Package dataset fetches snapshots of domain records from a remote GeoJSON
// endpoint. The client is a leaf: one round trip per call, no retry logic,
// and every failure surfaces as a recoverable FetchError that callers treat
// as "no update this cycle".
package dataset

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/peakatlas/globesync/pkg/constants"
	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/records"
)

// maxResponseBytes caps how much of a response body is read. A feature
// collection past this size indicates a misconfigured endpoint.
const maxResponseBytes = 32 << 20

// Option is a function that configures a Client
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithHeader adds a header to every request, e.g. an Authorization token.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// Client fetches GeoJSON feature collections from a configured endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	headers  map[string]string
}

// New creates a dataset client for the given endpoint URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, &errors.ValidationError{Field: "endpoint", Message: "must not be empty"}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, &errors.ValidationError{Field: "endpoint", Value: endpoint, Message: err.Error()}
	}

	c := &Client{
		http:     &http.Client{Timeout: constants.DefaultHTTPTimeout},
		endpoint: endpoint,
		headers:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Snapshot performs one GET round trip and maps every feature with point
// geometry to a Record. Features lacking geometry or a usable integer id are
// silently excluded, not errored.
func (c *Client) Snapshot(ctx context.Context) (records.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, errors.WrapFetch(c.endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapFetch(c.endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewFetchError(c.endpoint, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.WrapFetch(c.endpoint, resp.StatusCode, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, errors.WrapFetch(c.endpoint, resp.StatusCode,
			errors.WrapParse("geojson", "response body", err))
	}

	snapshot := make(records.Snapshot, len(fc.Features))
	for _, f := range fc.Features {
		rec, ok := recordFromFeature(f)
		if !ok {
			continue
		}
		snapshot[rec.ID] = rec
	}
	return snapshot, nil
}

// recordFromFeature maps one GeoJSON feature to a Record. It returns false
// for features without point geometry or a stable integer id.
func recordFromFeature(f *geojson.Feature) (records.Record, bool) {
	if f == nil || f.Geometry == nil {
		return records.Record{}, false
	}
	point, ok := f.Geometry.(orb.Point)
	if !ok {
		return records.Record{}, false
	}

	id, ok := featureID(f)
	if !ok {
		return records.Record{}, false
	}

	rec := records.Record{
		ID:        id,
		Longitude: point.Lon(),
		Latitude:  point.Lat(),
	}

	for key, value := range f.Properties {
		switch key {
		case "id":
			// Consumed above.
		case "name":
			rec.Name, _ = value.(string)
		case "place", "nearest_city":
			if s, ok := value.(string); ok {
				rec.Place = s
			}
		case "region", "province", "state":
			if s, ok := value.(string); ok {
				rec.Region = s
			}
		case "country":
			rec.Country, _ = value.(string)
		default:
			if n, ok := asFloat(value); ok {
				if rec.Metrics == nil {
					rec.Metrics = make(map[string]float64)
				}
				rec.Metrics[key] = n
			}
		}
	}
	return rec, true
}

// featureID extracts the stable integer identity, preferring the id property
// over the optional top-level feature id.
func featureID(f *geojson.Feature) (records.ID, bool) {
	if v, ok := f.Properties["id"]; ok {
		if n, ok := asFloat(v); ok {
			return records.ID(int64(n)), true
		}
	}
	if n, ok := asFloat(f.ID); ok {
		return records.ID(int64(n)), true
	}
	return 0, false
}

// asFloat normalizes the numeric types encoding/json may produce.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
