package entes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/apperror"
	"repopa/internal/core/folio"
	"repopa/internal/core/id"
	"repopa/internal/core/numerator"
	"repopa/internal/core/tx"
	"repopa/internal/domain"
)

// memRepo is an in-memory Repository enforcing folio uniqueness.
type memRepo struct {
	mu      sync.Mutex
	byID    map[id.ID]*Ente
	byFolio map[string]id.ID
	bySeq   map[int64]id.ID
	calls   int

	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[id.ID]*Ente{}, byFolio: map[string]id.ID{}, bySeq: map[int64]id.ID{}}
}

func (r *memRepo) seed(folios ...string) {
	for _, f := range folios {
		n, _ := folio.Sequence(f)
		e := &Ente{Folio: f, FolioSeq: n, Name: "Legado", Type: folio.TypeOPD, Status: StatusActive}
		e.ID = id.New()
		r.byID[e.ID] = e
		r.byFolio[f] = e.ID
		r.bySeq[n] = e.ID
	}
}

func (r *memRepo) Create(_ context.Context, e *Ente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	_, dupFolio := r.byFolio[e.Folio]
	_, dupSeq := r.bySeq[e.FolioSeq]
	if dupFolio || dupSeq {
		return apperror.NewDuplicate("ente", "folio", e.Folio)
	}
	cp := *e
	r.byID[e.ID] = &cp
	r.byFolio[e.Folio] = e.ID
	r.bySeq[e.FolioSeq] = e.ID
	return nil
}

func (r *memRepo) GetByID(_ context.Context, enteID id.ID) (*Ente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	e, ok := r.byID[enteID]
	if !ok {
		return nil, apperror.NewNotFound("entes", enteID.String())
	}
	cp := *e
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, e *Ente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	stored, ok := r.byID[e.ID]
	if !ok || stored.Version != e.Version {
		return apperror.NewConcurrentModification("entes", e.ID.String())
	}
	e.BumpVersion()
	cp := *e
	r.byID[e.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, enteID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	e, ok := r.byID[enteID]
	if !ok {
		return apperror.NewNotFound("entes", enteID.String())
	}
	delete(r.byFolio, e.Folio)
	delete(r.bySeq, e.FolioSeq)
	delete(r.byID, enteID)
	return nil
}

func (r *memRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Ente], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	res := domain.ListResult[*Ente]{}
	for _, e := range r.byID {
		res.Items = append(res.Items, e)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memRepo) MaxSequence(_ context.Context, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var maxSeq int64
	for n := range r.bySeq {
		maxSeq = max(maxSeq, n)
	}
	return maxSeq, nil
}

func (r *memRepo) Counts(_ context.Context) (Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var c Counts
	for _, e := range r.byID {
		if !e.IsActive() {
			continue
		}
		c.TotalEntities++
		switch e.Type {
		case folio.TypeOPD:
			c.ActiveOrganisms++
		case folio.TypeFideicomiso:
			c.ActiveTrusts++
		case folio.TypeEPEM:
			c.ActiveEPEM++
		}
	}
	return c, nil
}

func (r *memRepo) Recent(_ context.Context, limit int) ([]*Ente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var out []*Ente
	for _, e := range r.byID {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var fixedNow = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func newTestService(repo *memRepo, seq numerator.Sequencer) *Service {
	return NewService(Config{
		Repo:      repo,
		Sequencer: seq,
		TxManager: tx.Passthrough,
		Now:       fixedNow,
	})
}

func TestRegister_FirstFolio(t *testing.T) {
	svc := newTestService(newMemRepo(), numerator.NewMemorySequencer())

	reg, err := svc.Register(context.Background(), RegisterRequest{Name: "Instituto de Vivienda", Type: "Organismo"})
	require.NoError(t, err)
	assert.Equal(t, "SAyF-PF-REPOPA-IDV-OPD-2025-001", reg.Folio)
	assert.Equal(t, folio.TypeOPD, reg.Ente.Type)
	assert.Equal(t, StatusActive, reg.Ente.Status)
	assert.False(t, id.IsNil(reg.Ente.ID))
}

func TestRegister_SequenceIsGlobal(t *testing.T) {
	svc := newTestService(newMemRepo(), numerator.NewMemorySequencer())
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterRequest{Name: "Fondo Estatal", Type: "Fideicomiso"})
	require.NoError(t, err)
	b, err := svc.Register(ctx, RegisterRequest{Name: "Empresa Minera", Type: "EPEM"})
	require.NoError(t, err)

	assert.Equal(t, "SAyF-PF-REPOPA-FE-FI-2025-001", a.Folio)
	assert.Equal(t, "SAyF-PF-REPOPA-EM-EPEM-2025-002", b.Folio)
}

func TestRegister_UnknownTypePolicy(t *testing.T) {
	svc := newTestService(newMemRepo(), numerator.NewMemorySequencer())
	reg, err := svc.Register(context.Background(), RegisterRequest{Name: "Foo Bar", Type: "Foo"})
	require.NoError(t, err)
	assert.Contains(t, reg.Folio, "-FB-OPD-")

	strict := NewService(Config{
		Repo:        newMemRepo(),
		Sequencer:   numerator.NewMemorySequencer(),
		TxManager:   tx.Passthrough,
		UnknownType: folio.UnknownTypeReject,
	})
	_, err = strict.Register(context.Background(), RegisterRequest{Name: "Foo Bar", Type: "Foo"})
	assert.True(t, apperror.IsValidation(err))
}

func TestRegister_MissingFieldsBeforeStore(t *testing.T) {
	repo := newMemRepo()
	seq := numerator.NewMemorySequencer()
	seq.NextFunc = func(context.Context, string) (int64, error) {
		t.Fatal("sequencer must not be called")
		return 0, nil
	}
	touched := false
	txm := tx.Func(func(ctx context.Context, fn func(context.Context) error) error {
		touched = true
		return fn(ctx)
	})
	svc := NewService(Config{Repo: repo, Sequencer: seq, TxManager: txm})

	for _, req := range []RegisterRequest{
		{Name: "Instituto de Vivienda"},
		{Type: "OPD"},
		{Name: "   ", Type: "OPD"},
		{Name: "Instituto", Type: "OPD", Status: "Suspendido"},
	} {
		_, err := svc.Register(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err), "%+v: %v", req, err)
		assert.Equal(t, http.StatusBadRequest, apperror.GetHTTPStatus(err))
	}
	assert.Zero(t, repo.callCount())
	assert.False(t, touched)
}

func TestRegister_ConcurrentFoliosAreUniqueAndDense(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, numerator.NewMemorySequencer())

	const n = 40
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		folios []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg, err := svc.Register(context.Background(), RegisterRequest{
				Name: fmt.Sprintf("Organismo Numero %d", i),
				Type: "OPD",
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			folios = append(folios, reg.Folio)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, folios, n)
	seen := map[int64]bool{}
	for _, f := range folios {
		seq, ok := folio.Sequence(f)
		require.True(t, ok, f)
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing sequence %d", i)
	}
}

func TestRegister_ReconcilesAfterLegacyFolios(t *testing.T) {
	repo := newMemRepo()
	repo.seed(
		"SAyF-PF-REPOPA-IDV-OPD-2024-001",
		"SAyF-PF-REPOPA-FE-FI-2024-002",
		"SAyF-PF-REPOPA-CEDAY-OPD-2024-003",
	)
	seq := numerator.NewMemorySequencer()
	svc := newTestService(repo, seq)

	reg, err := svc.Register(context.Background(), RegisterRequest{Name: "Instituto de Vivienda", Type: "OPD"})
	require.NoError(t, err)
	assert.Equal(t, "SAyF-PF-REPOPA-IDV-OPD-2025-004", reg.Folio)

	cur, _ := seq.Current(context.Background(), folio.Prefix)
	assert.Equal(t, int64(4), cur)
}

func TestRegister_CollisionExhausted(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = apperror.NewDuplicate("ente", "folio", "x")
	svc := newTestService(repo, numerator.NewMemorySequencer())

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Instituto", Type: "OPD"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeFolioCollision, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, DefaultMaxAttempts, appErr.Details["attempts"])
}

func TestRegister_StorageFailure(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = errors.New("connection refused")
	svc := newTestService(repo, numerator.NewMemorySequencer())

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Instituto", Type: "OPD"})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperror.GetHTTPStatus(err))
	assert.ErrorContains(t, err, "connection refused")
}

func TestRegister_SequencerFailure(t *testing.T) {
	seq := numerator.NewMemorySequencer()
	seq.NextFunc = func(context.Context, string) (int64, error) {
		return 0, errors.New("deadlock detected")
	}
	svc := newTestService(newMemRepo(), seq)

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Instituto", Type: "OPD"})
	assert.True(t, apperror.HasCode(err, apperror.CodeStorage))
}

func TestPreviewFolio_DoesNotAdvance(t *testing.T) {
	repo := newMemRepo()
	seq := numerator.NewMemorySequencer()
	svc := newTestService(repo, seq)
	ctx := context.Background()

	first, err := svc.PreviewFolio(ctx, "Instituto de Vivienda", "Organismo")
	require.NoError(t, err)
	second, err := svc.PreviewFolio(ctx, "Instituto de Vivienda", "Organismo")
	require.NoError(t, err)

	assert.Equal(t, "SAyF-PF-REPOPA-IDV-OPD-2025-001", first)
	assert.Equal(t, first, second)
	cur, _ := seq.Current(ctx, folio.Prefix)
	assert.Zero(t, cur)

	reg, err := svc.Register(ctx, RegisterRequest{Name: "Instituto de Vivienda", Type: "Organismo"})
	require.NoError(t, err)
	assert.Equal(t, first, reg.Folio)
}

func TestPreviewFolio_UsesStoredMaximum(t *testing.T) {
	repo := newMemRepo()
	repo.seed("SAyF-PF-REPOPA-X-OPD-2023-017")
	svc := newTestService(repo, numerator.NewMemorySequencer())

	f, err := svc.PreviewFolio(context.Background(), "Fondo", "FI")
	require.NoError(t, err)
	assert.Equal(t, "SAyF-PF-REPOPA-F-FI-2025-018", f)
}

func TestUpdate_KeepsFolioAndType(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, numerator.NewMemorySequencer())
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Name: "Instituto de Vivienda", Type: "OPD"})
	require.NoError(t, err)

	e, err := svc.Get(ctx, reg.Ente.ID)
	require.NoError(t, err)
	e.Name = "Instituto Estatal de Vivienda"
	e.Status = StatusInactive
	require.NoError(t, svc.Update(ctx, e))

	stored, err := svc.Get(ctx, reg.Ente.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.Folio, stored.Folio)
	assert.Equal(t, "Instituto Estatal de Vivienda", stored.Name)
	assert.Equal(t, 2, stored.Version)

	stored.Folio = "SAyF-PF-REPOPA-IEDV-OPD-2025-001"
	err = svc.Update(ctx, stored)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestStats(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, numerator.NewMemorySequencer())
	ctx := context.Background()

	for _, req := range []RegisterRequest{
		{Name: "Instituto Uno", Type: "OPD"},
		{Name: "Instituto Dos", Type: "OPD"},
		{Name: "Fondo Uno", Type: "Fideicomiso"},
		{Name: "Empresa Uno", Type: "EPEM"},
		{Name: "Empresa Dos", Type: "EPEM", Status: "Inactivo"},
	} {
		_, err := svc.Register(ctx, req)
		require.NoError(t, err)
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{TotalEntities: 4, ActiveOrganisms: 2, ActiveTrusts: 1, ActiveEPEM: 1}, st.Counts)
	assert.Len(t, st.RecentEntities, 4)
	for _, r := range st.RecentEntities {
		assert.True(t, strings.HasPrefix(r.Folio, folio.Prefix))
	}
}
