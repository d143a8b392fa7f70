// Package dbtest provides Postgres connections for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresDSN skips unless QUIZBANK_INTEGRATION=1. It returns
// QUIZBANK_TEST_DSN when set, otherwise it starts a throwaway container that
// is removed when the test ends.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	if os.Getenv("QUIZBANK_INTEGRATION") != "1" {
		t.Skip("set QUIZBANK_INTEGRATION=1 to run integration test")
	}
	if dsn := os.Getenv("QUIZBANK_TEST_DSN"); dsn != "" {
		return dsn
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("quizbank"),
		postgres.WithUsername("quizbank"),
		postgres.WithPassword("quizbank"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	return dsn
}
