// File: internal/runner/main_test.go
package runner

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that no runner loop or helper goroutine outlives its test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
