package memory

import "context"

// TxManager satisfies tx.ReadOnlyManager without real transactions. The
// map repositories take their own locks per call, so callbacks run as-is.
// Rollback of partial writes is not simulated; tests that need atomicity
// guarantees assert through the postgres implementation instead.
type TxManager struct{}

// NewTxManager creates a pass-through transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
