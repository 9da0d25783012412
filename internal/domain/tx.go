package domain

import "context"

// Transactor runs fn inside one relational transaction. Repositories called with the
// ctx passed to fn take part in it; fn returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	// WithinReadTx runs fn in a read-only snapshot.
	WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}
