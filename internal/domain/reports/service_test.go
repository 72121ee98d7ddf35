package reports

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/apperror"
	"repopa/internal/core/entity"
	"repopa/internal/core/folio"
	"repopa/internal/core/id"
	"repopa/internal/domain/entes"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
)

type fakeRepo struct {
	entes     []*entes.Ente
	docs      []*regdoc.Document
	members   []*governingbody.Member
	directors []*director.Director
	powers    []*power.Power
	err       error
}

func (f *fakeRepo) Entes(context.Context, []id.ID) ([]*entes.Ente, error) {
	return f.entes, f.err
}

func (f *fakeRepo) Documents(context.Context, []id.ID) ([]*regdoc.Document, error) {
	return f.docs, nil
}

func (f *fakeRepo) Members(context.Context, []id.ID) ([]*governingbody.Member, error) {
	return f.members, nil
}

func (f *fakeRepo) Directors(context.Context, []id.ID) ([]*director.Director, error) {
	return f.directors, nil
}

func (f *fakeRepo) Powers(context.Context, []id.ID) ([]*power.Power, error) {
	return f.powers, nil
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixture() (*fakeRepo, []id.ID) {
	instituto := &entes.Ente{
		Base:   entity.Base{ID: id.New()},
		Folio:  "SAyF-PF-REPOPA-IEDD-OPD-2025-001",
		Name:   "Instituto Estatal del Deporte",
		Type:   folio.TypeOPD,
		Status: entes.StatusActive,
	}
	fideicomiso := &entes.Ente{
		Base:         entity.Base{ID: id.New()},
		Folio:        "SAyF-PF-REPOPA-FM-FI-2019-002",
		Name:         `Fideicomiso "Morelos"`,
		Type:         folio.TypeFideicomiso,
		Status:       entes.StatusInactive,
		CreationDate: day(2019, 5, 20),
	}

	doc := regdoc.NewDocument(instituto.ID)
	doc.DocumentName = "Decreto de creación, reformado"
	doc.DocumentType = "Decreto"
	doc.PublicationDate = day(2020, 1, 15)

	dir := director.NewDirector(instituto.ID)
	dir.Name = "Ana López"
	dir.Position = "Directora General"
	dir.StartDate = day(2024, 2, 1)

	pw := power.NewPower(instituto.ID)
	pw.PowerType = "Pleitos y cobranzas"
	pw.Attorneys = []string{"Juan Pérez", "María Ruiz"}

	repo := &fakeRepo{
		// storage order differs from request order
		entes:     []*entes.Ente{fideicomiso, instituto},
		docs:      []*regdoc.Document{doc},
		directors: []*director.Director{dir},
		powers:    []*power.Power{pw},
	}
	return repo, []id.ID{instituto.ID, fideicomiso.ID, instituto.ID}
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 7, 16, 30, 0, 0, time.UTC) }
	return s
}

func TestService_History(t *testing.T) {
	repo, ids := fixture()
	h, err := newTestService(repo).History(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, h.Entities, 2)
	first := h.Entities[0]
	assert.Equal(t, "Instituto Estatal del Deporte", first.Ente.Name)
	assert.Len(t, first.Documents, 1)
	assert.Len(t, first.Directors, 1)
	assert.Len(t, first.Powers, 1)
	assert.Empty(t, first.Members)
	assert.Empty(t, h.Entities[1].Documents)
	assert.Equal(t, "REPOPA-Historial-2025-03-07.csv", h.FileName("csv"))
}

func TestService_HistoryErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService(&fakeRepo{}).History(ctx, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = newTestService(&fakeRepo{}).History(ctx, []id.ID{id.New()})
	assert.True(t, apperror.IsNotFound(err))

	_, err = newTestService(&fakeRepo{err: errors.New("conn refused")}).History(ctx, []id.ID{id.New()})
	assert.True(t, apperror.HasCode(err, apperror.CodeStorage))

	many := make([]id.ID, MaxEntities+1)
	for i := range many {
		many[i] = id.New()
	}
	_, err = newTestService(&fakeRepo{}).History(ctx, many)
	assert.True(t, apperror.IsValidation(err))
}

func TestWriteCSV(t *testing.T) {
	repo, ids := fixture()
	h, err := newTestService(repo).History(context.Background(), ids)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, h))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "history_csv", buf.Bytes())
}

func TestWriteHTML(t *testing.T) {
	repo, ids := fixture()
	h, err := newTestService(repo).History(context.Background(), ids)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, h))
	out := buf.String()

	assert.Contains(t, out, "REPORTE DE HISTORIAL DE CAMBIOS")
	assert.Contains(t, out, "7 de marzo de 2025")
	assert.Contains(t, out, "<strong>Entes incluidos:</strong> 2")
	assert.Contains(t, out, "Fideicomiso &#34;Morelos&#34;")
	assert.Contains(t, out, "<td>Juan Pérez, María Ruiz</td>")
	assert.Contains(t, out, "<td>2024-02-01</td><td>Vigente</td>")
	assert.Contains(t, out, "No hay integrantes registrados")
	assert.Contains(t, out, "Organismo Público Descentralizado")
}

func TestDates(t *testing.T) {
	d := time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "9/10/2026", shortDate(d))
	assert.Equal(t, "9 de octubre de 2026", longDate(d))
	assert.Equal(t, "2026-10-09", dateOr(&d, "N/A"))
	assert.Equal(t, "N/A", dateOr(nil, "N/A"))
}
