package app

import (
	"os"
	"strconv"
)

// TestModeEnv names the variable that keeps the binaries from opening
// connections or listening. The testing package sets it for every test
// binary that imports it.
const TestModeEnv = "KOSHA_TEST_MODE"

// InTestMode reports whether TestModeEnv holds a true value ("1", "true").
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}
