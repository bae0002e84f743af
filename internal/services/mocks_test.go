package services

import (
	"context"
	"time"
)

// duplicateKeyError stands in for the driver's unique-constraint error
type duplicateKeyError struct{}

func (e *duplicateKeyError) Error() string {
	return `pq: duplicate key value violates unique constraint "donations_reference_code_key"`
}

func testCtx() context.Context {
	return context.Background()
}

func testTime() time.Time {
	return time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
}
