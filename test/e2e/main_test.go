package e2e

import (
	"fmt"
	"os"
	"testing"

	"github.com/pixav/maxwell/test/testutil"
)

// GlobalRedisAddr points at the broker shared by every test in this package.
var GlobalRedisAddr string

func TestMain(m *testing.M) {
	cleanupDB, err := setupMariaDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up MariaDB: %v\n", err)
		os.Exit(1)
	}

	cleanupRedis, err := setupRedis()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up Redis: %v\n", err)
		cleanupDB()
		os.Exit(1)
	}

	exitCode := m.Run()

	cleanupRedis()
	cleanupDB()
	os.Exit(exitCode)
}

func setupMariaDB() (func(), error) {
	if os.Getenv("TEST_DB_DSN") != "" {
		return func() {}, nil
	}
	ci, err := testutil.StartMariaDBContainer()
	if err != nil {
		return nil, err
	}
	if err := os.Setenv("TEST_DB_DSN", ci.DSN); err != nil {
		ci.Cleanup()
		return nil, err
	}
	return ci.Cleanup, nil
}

func setupRedis() (func(), error) {
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		GlobalRedisAddr = addr
		return func() {}, nil
	}
	ri, err := testutil.StartRedisContainer()
	if err != nil {
		return nil, err
	}
	GlobalRedisAddr = ri.Addr
	return ri.Cleanup, nil
}

type errorResponse struct {
	Error string `json:"error"`
}
