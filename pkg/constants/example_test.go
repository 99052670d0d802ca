package constants_test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/peakatlas/globesync/pkg/constants"
)

// Example_timeouts demonstrates timeout constants
func Example_timeouts() {
	// HTTP client with default timeout
	client := &http.Client{
		Timeout: constants.DefaultHTTPTimeout,
	}
	fmt.Printf("HTTP timeout: %v\n", client.Timeout)

	// Context with operation timeout
	ctx, cancel := context.WithTimeout(
		context.Background(),
		constants.DefaultTimeout,
	)
	defer cancel()

	// Simulated operation
	select {
	case <-time.After(100 * time.Millisecond):
		fmt.Println("Operation completed")
	case <-ctx.Done():
		fmt.Println("Operation timed out")
	}

	// Output:
	// HTTP timeout: 30s
	// Operation completed
}

// Example_polling demonstrates the poll interval constant
func Example_polling() {
	ticker := time.NewTicker(constants.DefaultPollInterval)
	defer ticker.Stop()

	fmt.Printf("Poll interval: %v\n", constants.DefaultPollInterval)
	fmt.Printf("Worker interval: %v\n", constants.DefaultWorkerInterval)

	// Output:
	// Poll interval: 5s
	// Worker interval: 10s
}

// Example_geocodeLimits shows geocoding limits and pacing
func Example_geocodeLimits() {
	fmt.Printf("Max attempts: %d\n", constants.MaxGeocodeAttempts)
	fmt.Printf("Batch size: %d\n", constants.GeocodeBatchSize)
	fmt.Printf("Pacing: %v\n", constants.GeocodePacing)

	// Output:
	// Max attempts: 3
	// Batch size: 10
	// Pacing: 1.1s
}

// Example_coordinateBounds shows WGS-84 coordinate bounds
func Example_coordinateBounds() {
	lon, lat := -122.9, 48.1
	valid := lon >= constants.MinLongitude && lon <= constants.MaxLongitude &&
		lat >= constants.MinLatitude && lat <= constants.MaxLatitude
	fmt.Printf("(%v, %v) valid: %v\n", lon, lat, valid)

	// Output:
	// (-122.9, 48.1) valid: true
}
