package ledger

import (
	"context"
	"errors"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

var (
	// ErrUnavailable means the ledger could not be reached at all.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrRejected means the ledger refused the write (malformed record,
	// insufficient resources on the store side).
	ErrRejected = errors.New("ledger rejected commit")

	// ErrTimeout means the record was submitted but its outcome is unknown
	// after the bounded wait. Retrying after this error may duplicate the
	// record: the ledger assigns no client-supplied dedup key, so appends are
	// at-least-once on timeout. The pipeline never retries for that reason.
	ErrTimeout = errors.New("ledger commit timed out")
)

// CommittedRecord is an AnomalyRecord plus its position in ledger append order.
type CommittedRecord struct {
	types.AnomalyRecord
	Position uint64 `json:"position"`
}

// Client is the append-only anomaly log. Append may block for the duration of
// the store's finality wait, bounded by the caller's context; it must be
// called with no pipeline locks held.
type Client interface {
	// Append durably commits the record and returns its position.
	// Fails with ErrUnavailable, ErrRejected or ErrTimeout (wrapped).
	Append(ctx context.Context, record types.AnomalyRecord) (uint64, error)

	// ListAll returns every committed record in ledger append order.
	// Fails with ErrUnavailable (wrapped).
	ListAll(ctx context.Context) ([]CommittedRecord, error)
}
