// Package sink provides the output destinations for accounting records.
package sink

import (
	"context"
	"fmt"

	"liquidationLedger/internal/model"
)

// Sink consumes accounting records one at a time.
type Sink interface {
	Emit(ctx context.Context, record model.AccountingRecord) error
	Close() error
}

// OutputError wraps a sink write or create failure so callers can
// distinguish output problems from provider problems and decide whether to
// retry or abort.
type OutputError struct {
	Op  string
	Err error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}
