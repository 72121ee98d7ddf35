package entes

import (
	"context"

	"repopa/internal/domain"
)

// Repository persists entities.
//
// Create must report a clash on the folio or on its sequence number as
// apperror.NewDuplicate("ente", "folio", folio) so the service can
// reconcile and retry.
type Repository interface {
	domain.Repository[*Ente]

	// MaxSequence returns the highest sequence number among stored folios
	// matching likePattern, 0 when there are none.
	MaxSequence(ctx context.Context, likePattern string) (int64, error)

	// Counts returns the active totals used by the dashboard.
	Counts(ctx context.Context) (Counts, error)

	// Recent returns the latest active entities, newest first.
	Recent(ctx context.Context, limit int) ([]*Ente, error)
}
