package numerator

import "context"

// Sequencer hands out strictly increasing integers per key.
//
// Next runs on the caller's transaction when one is present in ctx, so a
// rolled back registration also rolls back its number.
type Sequencer interface {
	// Next increments the counter and returns the new value (first call
	// returns 1).
	Next(ctx context.Context, key string) (int64, error)

	// Current returns the last issued value, 0 for an unknown key. It never
	// changes the counter.
	Current(ctx context.Context, key string) (int64, error)

	// Advance raises the counter to atLeast when it is lower. Used to
	// reconcile with folios that were written without the counter.
	Advance(ctx context.Context, key string, atLeast int64) error
}
