package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

// MemoryLedger is an in-process append-only log for development and tests.
// FailNext lets tests force the next operations to fail with a chosen ledger
// error to exercise the commit failure paths.
type MemoryLedger struct {
	mu      sync.Mutex
	records []CommittedRecord

	failWith  error
	failCount int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// FailNext makes the next n calls to Append and ListAll fail with cause.
func (l *MemoryLedger) FailNext(n int, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failCount = n
	l.failWith = cause
}

func (l *MemoryLedger) Append(ctx context.Context, record types.AnomalyRecord) (uint64, error) {
	// Only deadline expiry is a timeout (outcome unknown); a canceled call
	// never submitted anything, so its outcome is known.
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure(); err != nil {
		return 0, err
	}

	position := uint64(len(l.records) + 1)
	l.records = append(l.records, CommittedRecord{
		AnomalyRecord: record,
		Position:      position,
	})
	return position, nil
}

func (l *MemoryLedger) ListAll(ctx context.Context) ([]CommittedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure(); err != nil {
		return nil, err
	}

	out := make([]CommittedRecord, len(l.records))
	copy(out, l.records)
	return out, nil
}

func (l *MemoryLedger) takeFailure() error {
	if l.failCount > 0 {
		l.failCount--
		return fmt.Errorf("%w: simulated failure", l.failWith)
	}
	return nil
}
