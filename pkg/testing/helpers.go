package testing

import (
	"context"
	"testing"
	"time"
)

// SkipIfShort skips container backed tests under go test -short
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// CreateTestContext creates a context with a timeout that ends with the test
func CreateTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
