// Package geocode resolves place names to WGS-84 coordinates through the
// OpenStreetMap Nominatim service and runs the background worker that
// fills in coordinates for stored rows.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peakatlas/globesync/pkg/constants"
	"github.com/peakatlas/globesync/pkg/errors"
)

// countryCodes maps common country names to ISO 3166-1 alpha-2 codes for
// Nominatim's countrycodes filter.
var countryCodes = map[string]string{
	"canada": "ca", "united states": "us", "usa": "us", "us": "us",
	"france": "fr", "switzerland": "ch", "austria": "at", "italy": "it",
	"germany": "de", "japan": "jp", "australia": "au", "norway": "no",
	"sweden": "se", "spain": "es", "chile": "cl", "argentina": "ar",
	"new zealand": "nz", "united kingdom": "gb", "uk": "gb",
}

// CountryCode returns the ISO 3166-1 alpha-2 code for a country name, or
// "" when the name is unknown.
func CountryCode(country string) string {
	return countryCodes[strings.ToLower(strings.TrimSpace(country))]
}

// Coordinates is a WGS-84 position.
type Coordinates struct {
	Longitude float64
	Latitude  float64
}

// Resolver geocodes free-form queries against a Nominatim endpoint. It
// spaces requests out to honor the service's one-request-per-second usage
// policy.
type Resolver struct {
	http      *http.Client
	baseURL   string
	userAgent string
	pacing    time.Duration

	mu   sync.Mutex
	last time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBaseURL overrides the Nominatim endpoint, mainly for tests.
func WithBaseURL(u string) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = u
	}
}

// WithResolverHTTPClient overrides the HTTP client.
func WithResolverHTTPClient(hc *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.http = hc
	}
}

// WithPacing overrides the minimum spacing between requests. Zero disables
// pacing.
func WithPacing(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.pacing = d
	}
}

// NewResolver creates a Resolver against the public Nominatim endpoint.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		http:      &http.Client{Timeout: constants.GeocodeTimeout},
		baseURL:   constants.NominatimURL,
		userAgent: constants.GeocodeUserAgent,
		pacing:    constants.GeocodePacing,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// nominatimResult is one entry of the search response. Nominatim encodes
// coordinates as strings.
type nominatimResult struct {
	Lon string `json:"lon"`
	Lat string `json:"lat"`
}

// Resolve geocodes a free-form query. countryCode optionally restricts
// results to one country (ISO 3166-1 alpha-2). A query with no results
// returns an error matching ErrNoResult.
func (r *Resolver) Resolve(ctx context.Context, query, countryCode string) (Coordinates, error) {
	if strings.TrimSpace(query) == "" {
		return Coordinates{}, errors.NewValidationError("query", query, "must not be empty")
	}

	if err := r.pace(ctx); err != nil {
		return Coordinates{}, errors.NewGeocodeError(query, "rate limit wait interrupted", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if countryCode != "" {
		params.Set("countrycodes", countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, errors.NewGeocodeError(query, "building request", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return Coordinates{}, errors.NewGeocodeError(query, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Coordinates{}, errors.NewGeocodeError(query,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Coordinates{}, errors.NewGeocodeError(query, "reading response", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Coordinates{}, errors.NewGeocodeError(query, "parsing response", err)
	}
	if len(results) == 0 {
		return Coordinates{}, errors.NewGeocodeError(query, "no results", errors.ErrNoResult)
	}

	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, errors.NewGeocodeError(query, "parsing longitude", err)
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, errors.NewGeocodeError(query, "parsing latitude", err)
	}

	return Coordinates{Longitude: lon, Latitude: lat}, nil
}

// pace blocks until the minimum spacing since the previous request has
// elapsed.
func (r *Resolver) pace(ctx context.Context) error {
	if r.pacing <= 0 {
		return nil
	}

	r.mu.Lock()
	wait := r.pacing - time.Since(r.last)
	r.last = time.Now().Add(wait)
	r.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
