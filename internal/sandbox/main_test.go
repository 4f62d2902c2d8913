package sandbox

import (
	"testing"

	"go.uber.org/goleak"
)

// Every operation in this package runs synchronously on the caller's
// goroutine; leaking one would mean a walk or scan escaped its call.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
