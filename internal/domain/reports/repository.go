package reports

import (
	"context"

	"repopa/internal/core/id"
	"repopa/internal/domain/entes"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
)

// Repository loads everything attached to a set of entities in one
// query per kind.
type Repository interface {
	Entes(ctx context.Context, ids []id.ID) ([]*entes.Ente, error)
	Documents(ctx context.Context, entityIDs []id.ID) ([]*regdoc.Document, error)
	Members(ctx context.Context, entityIDs []id.ID) ([]*governingbody.Member, error)
	Directors(ctx context.Context, entityIDs []id.ID) ([]*director.Director, error)
	Powers(ctx context.Context, entityIDs []id.ID) ([]*power.Power, error)
}
