// internal/ports/repository/tx_manager.repo.go
package repository

import "context"

// TransactionManager runs fn inside a store transaction when the store has
// them. Stores with only per-record atomicity run fn directly; callers must
// not rely on rollback for correctness.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
