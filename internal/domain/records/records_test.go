package records_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/core/tx"
	"repopa/internal/domain"
	"repopa/internal/domain/records"
	"repopa/internal/domain/records/regdoc"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func TestParseStatus(t *testing.T) {
	type st string
	got, err := records.ParseStatus[st]("", "Activo", "Concluido")
	require.NoError(t, err)
	assert.Equal(t, st("Activo"), got)

	got, err = records.ParseStatus[st](" concluido ", "Activo", "Concluido")
	require.NoError(t, err)
	assert.Equal(t, st("Concluido"), got)

	_, err = records.ParseStatus[st]("Baja", "Activo", "Concluido")
	assert.True(t, apperror.IsValidation(err))
}

func TestCheckOrder(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, records.CheckOrder("from", &jan, "to", &feb))
	assert.NoError(t, records.CheckOrder("from", &jan, "to", &jan))
	assert.NoError(t, records.CheckOrder("from", nil, "to", &jan))
	assert.NoError(t, records.CheckOrder("from", &jan, "to", nil))

	err := records.CheckOrder("from", &feb, "to", &jan)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "to", appErr.Details["field"])
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := records.NewMemoryRepository[*regdoc.Document]()
	events := &recordingPublisher{}
	svc := regdoc.NewService(records.Config[*regdoc.Document]{
		Repo:      repo,
		TxManager: tx.Passthrough,
		Events:    events,
	})

	enteID := id.New()
	doc := regdoc.NewDocument(enteID)
	doc.DocumentType = "Decreto"
	doc.DocumentName = "Decreto de creación"
	require.NoError(t, svc.Create(ctx, doc))

	other := regdoc.NewDocument(id.New())
	other.DocumentType = "Reglamento"
	other.DocumentName = "Reglamento interior"
	require.NoError(t, svc.Create(ctx, other))

	mine, err := svc.ListByEntity(ctx, enteID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, doc.ID, mine[0].ID)

	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	stored.Notes = "Publicado en el Periódico Oficial"
	require.NoError(t, svc.Update(ctx, stored))
	assert.Equal(t, 2, stored.Version)

	stale := *doc
	err = svc.Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))

	require.NoError(t, svc.Delete(ctx, doc.ID))
	_, err = svc.GetByID(ctx, doc.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 1, repo.Len())

	assert.Equal(t, []string{
		"RegulatoryDocumentCreated",
		"RegulatoryDocumentCreated",
		"RegulatoryDocumentUpdated",
		"RegulatoryDocumentDeleted",
	}, events.types())
}

func TestService_CreateRejectsMissingFields(t *testing.T) {
	repo := records.NewMemoryRepository[*regdoc.Document]()
	svc := regdoc.NewService(records.Config[*regdoc.Document]{Repo: repo, TxManager: tx.Passthrough})

	doc := regdoc.NewDocument(id.Nil())
	doc.DocumentType = "Decreto"
	doc.DocumentName = "Decreto"
	err := svc.Create(context.Background(), doc)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "entityId", appErr.Details["field"])

	doc = regdoc.NewDocument(id.New())
	doc.DocumentType = "Decreto"
	err = svc.Create(context.Background(), doc)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "documentName", appErr.Details["field"])

	assert.Zero(t, repo.Len())
}

func TestMemoryRepository_ListPaging(t *testing.T) {
	ctx := context.Background()
	repo := records.NewMemoryRepository[*regdoc.Document]()
	enteID := id.New()
	for range 5 {
		d := regdoc.NewDocument(enteID)
		require.NoError(t, repo.Create(ctx, d))
	}

	res, err := repo.List(ctx, domain.ListFilter{EntityID: &enteID, Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.TotalCount)
	assert.Len(t, res.Items, 1)

	res, err = repo.List(ctx, domain.ListFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}
