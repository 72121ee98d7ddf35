// Package report_repo reads the history report in one query per record
// kind.
package report_repo

import (
	"context"

	"repopa/internal/core/id"
	"repopa/internal/domain/entes"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
	"repopa/internal/domain/reports"
	"repopa/internal/infrastructure/storage/postgres"
	"repopa/internal/infrastructure/storage/postgres/record_repo"
)

// ReportRepo implements reports.Repository on top of the record repos.
type ReportRepo struct {
	entes     *record_repo.EnteRepo
	docs      *record_repo.BaseRepo[*regdoc.Document]
	members   *record_repo.BaseRepo[*governingbody.Member]
	directors *record_repo.BaseRepo[*director.Director]
	powers    *record_repo.BaseRepo[*power.Power]
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a ReportRepo.
func NewReportRepo(db postgres.QuerierProvider) *ReportRepo {
	return &ReportRepo{
		entes:     record_repo.NewEnteRepo(db),
		docs:      record_repo.NewRegDocRepo(db),
		members:   record_repo.NewGoverningBodyRepo(db),
		directors: record_repo.NewDirectorRepo(db),
		powers:    record_repo.NewPowerRepo(db),
	}
}

func (r *ReportRepo) Entes(ctx context.Context, ids []id.ID) ([]*entes.Ente, error) {
	return r.entes.ListByIDs(ctx, ids)
}

func (r *ReportRepo) Documents(ctx context.Context, entityIDs []id.ID) ([]*regdoc.Document, error) {
	return r.docs.ListByEntities(ctx, entityIDs)
}

func (r *ReportRepo) Members(ctx context.Context, entityIDs []id.ID) ([]*governingbody.Member, error) {
	return r.members.ListByEntities(ctx, entityIDs)
}

func (r *ReportRepo) Directors(ctx context.Context, entityIDs []id.ID) ([]*director.Director, error) {
	return r.directors.ListByEntities(ctx, entityIDs)
}

func (r *ReportRepo) Powers(ctx context.Context, entityIDs []id.ID) ([]*power.Power, error) {
	return r.powers.ListByEntities(ctx, entityIDs)
}
