// Package testing puts the ledger binaries into test mode when blank-imported
// by their tests: main returns before touching Postgres or Redis.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// defaults are applied only when the variable is unset, so CI can still
// override them.
var defaults = map[string]string{
	"APP_ENV":   "test",
	"LOG_LEVEL": "error",
}

var once sync.Once

func enterTestMode() {
	once.Do(func() {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
		for key, value := range defaults {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	enterTestMode()
}

func TestMain(m *stdtesting.M) {
	enterTestMode()
	os.Exit(m.Run())
}
