package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("expected default logger for empty context")
	}
	if FromContext(nil) != Default() { //nolint:staticcheck // nil context fallback is part of the contract
		t.Error("expected default logger for nil context")
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	got := FromContext(ctx)

	got.Info().Msg("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Errorf("context logger did not write to buffer: %q", buf.String())
	}
}

func TestDomainFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)
	ctx := WithLogger(context.Background(), &logger)

	ctx = WithEndpoint(ctx, "http://localhost/api/geojson/points")
	ctx = WithRecord(ctx, 42)
	ctx = WithCycle(ctx, 3)

	Ctx(ctx).Info().Msg("cycle complete")

	out := buf.String()
	for _, want := range []string{`"endpoint":`, `"record_id":42`, `"cycle":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got %q", want, out)
		}
	}
}
