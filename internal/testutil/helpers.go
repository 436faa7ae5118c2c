package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// TestContext creates a context with timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Range parses an inclusive YYYY-MM-DD range or fails the test
func Range(t *testing.T, start, end string) ledger.DateRange {
	t.Helper()
	r, err := ledger.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

// FixedClock returns a clock pinned to the given YYYY-MM-DD date at noon UTC
func FixedClock(t *testing.T, day string) func() time.Time {
	t.Helper()
	d, err := time.Parse(ledger.DateLayout, day)
	require.NoError(t, err)
	at := d.Add(12 * time.Hour)
	return func() time.Time { return at }
}

// SkipIfShort skips tests that need Docker
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
