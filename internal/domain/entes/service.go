package entes

import (
	"context"
	"strings"
	"time"

	"repopa/internal/core/apperror"
	"repopa/internal/core/entity"
	"repopa/internal/core/folio"
	"repopa/internal/core/id"
	"repopa/internal/core/numerator"
	"repopa/internal/core/tx"
	"repopa/internal/domain"
	"repopa/internal/domain/audit"
	"repopa/pkg/logger"
)

const (
	// EntityName is used in audit rows, events and errors.
	EntityName = "Ente"

	// EventRegistered is published for every new entity.
	EventRegistered = "EnteRegistered"

	// DefaultMaxAttempts bounds folio allocation retries.
	DefaultMaxAttempts = 3
)

// Config wires a Service.
type Config struct {
	Repo      Repository
	Sequencer numerator.Sequencer
	TxManager tx.Manager
	Audit     audit.Logger
	Events    domain.EventPublisher
	Cache     StatsCache

	// UnknownType decides what happens to unrecognized classifications.
	UnknownType folio.UnknownTypePolicy

	// MaxAttempts bounds registration retries after folio clashes.
	MaxAttempts int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service registers entities and assigns their folios.
type Service struct {
	repo      Repository
	seq       numerator.Sequencer
	txManager tx.Manager
	audit     audit.Logger
	events    domain.EventPublisher
	cache     StatsCache
	alloc     folio.Allocator
	seqCfg    numerator.Config
	attempts  int
	now       func() time.Time

	records *domain.RecordService[*Ente]
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		seq:       cfg.Sequencer,
		txManager: cfg.TxManager,
		audit:     cfg.Audit,
		events:    cfg.Events,
		cache:     cfg.Cache,
		alloc:     folio.Allocator{Policy: cfg.UnknownType},
		seqCfg:    numerator.DefaultConfig(folio.Prefix),
		attempts:  cfg.MaxAttempts,
		now:       cfg.Now,
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.events == nil {
		s.events = domain.NopPublisher{}
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	if s.attempts <= 0 {
		s.attempts = DefaultMaxAttempts
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.records = domain.NewRecordService(domain.RecordServiceConfig[*Ente]{
		Repo:       cfg.Repo,
		TxManager:  cfg.TxManager,
		Audit:      s.audit,
		Events:     s.events,
		EntityName: EntityName,
	})
	s.records.Hooks().On(domain.BeforeUpdate, s.keepImmutable)
	invalidate := func(context.Context, *Ente) error {
		s.cache.Invalidate()
		return nil
	}
	s.records.Hooks().On(domain.AfterUpdate, invalidate)
	s.records.Hooks().On(domain.AfterDelete, invalidate)

	return s
}

// Register validates the request, allocates the next folio and stores the
// entity with its audit row and EnteRegistered event in one transaction.
//
// The sequence increment shares the transaction, so concurrent callers
// serialize on the counter row and receive distinct, increasing numbers.
// If the insert still hits an existing folio (rows written without the
// counter, e.g. legacy imports), the counter is raised to the stored
// maximum and the whole unit is retried.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	now := s.now()

	cand, err := s.alloc.Prepare(req.Name, req.Type, now)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	ente := &Ente{
		Base:                entity.NewBase(),
		Name:                strings.TrimSpace(req.Name),
		Type:                cand.Type,
		Purpose:             req.Purpose,
		Address:             req.Address,
		CreationInstrument:  req.CreationInstrument,
		CreationDate:        req.CreationDate,
		OfficialPublication: req.OfficialPublication,
		Observations:        req.Observations,
		Status:              status,
	}
	audit.EnrichCreatedBy(ctx, ente)
	if err := ente.Validate(ctx); err != nil {
		return nil, err
	}

	key := s.seqCfg.StorageKey(now)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			n, err := s.seq.Next(ctx, key)
			if err != nil {
				return apperror.NewStorage("next folio sequence", err)
			}
			ente.Folio = cand.Folio(n)
			ente.FolioSeq = n

			if err := s.repo.Create(ctx, ente); err != nil {
				return err
			}
			if err := s.audit.LogChange(ctx, EntityName, ente.ID, audit.ActionCreate, audit.Snapshot(ente)); err != nil {
				return apperror.NewStorage("audit registration", err)
			}
			return s.events.Publish(ctx, domain.Event{
				AggregateType: EntityName,
				AggregateID:   ente.ID,
				Type:          EventRegistered,
				Payload:       registeredPayload(ente),
			})
		})
		if err == nil {
			s.cache.Invalidate()
			logger.Info(ctx, "entity registered", "id", ente.ID, "folio", ente.Folio, "attempt", attempt)
			return &Registration{Ente: ente, Folio: ente.Folio}, nil
		}

		if !isFolioClash(err) {
			if apperror.IsAppError(err) {
				return nil, err
			}
			return nil, apperror.NewStorage("register entity", err)
		}

		logger.Warn(ctx, "folio already taken, reconciling sequence",
			"folio", ente.Folio, "attempt", attempt, "max_attempts", s.attempts)
		if err := s.reconcile(ctx, key); err != nil {
			return nil, err
		}
	}

	return nil, apperror.NewFolioCollision(ente.Folio, s.attempts)
}

func isFolioClash(err error) bool {
	appErr, ok := apperror.AsAppError(err)
	return ok && appErr.Code == apperror.CodeDuplicate && appErr.Details["field"] == "folio"
}

// reconcile raises the counter to the highest stored sequence.
func (s *Service) reconcile(ctx context.Context, key string) error {
	maxSeq, err := s.repo.MaxSequence(ctx, folio.LikePattern)
	if err != nil {
		return apperror.NewStorage("read max folio sequence", err)
	}
	if err := s.seq.Advance(ctx, key, maxSeq); err != nil {
		return apperror.NewStorage("advance folio sequence", err)
	}
	return nil
}

// ReconcileSequence raises the counter to the highest stored folio and
// returns the resulting value. Used after bulk imports.
func (s *Service) ReconcileSequence(ctx context.Context) (int64, error) {
	key := s.seqCfg.StorageKey(s.now())
	if err := s.reconcile(ctx, key); err != nil {
		return 0, err
	}
	cur, err := s.seq.Current(ctx, key)
	if err != nil {
		return 0, apperror.NewStorage("read folio sequence", err)
	}
	return cur, nil
}

// PreviewFolio returns the folio the next registration with these inputs
// would receive if nothing else registers first. It never advances the
// counter.
func (s *Service) PreviewFolio(ctx context.Context, name, rawType string) (string, error) {
	now := s.now()
	cand, err := s.alloc.Prepare(name, rawType, now)
	if err != nil {
		return "", err
	}

	cur, err := s.seq.Current(ctx, s.seqCfg.StorageKey(now))
	if err != nil {
		return "", apperror.NewStorage("read folio sequence", err)
	}
	maxSeq, err := s.repo.MaxSequence(ctx, folio.LikePattern)
	if err != nil {
		return "", apperror.NewStorage("read max folio sequence", err)
	}
	return cand.Folio(max(cur, maxSeq) + 1), nil
}

// Get returns one entity.
func (s *Service) Get(ctx context.Context, enteID id.ID) (*Ente, error) {
	return s.records.GetByID(ctx, enteID)
}

// List returns a page of entities.
func (s *Service) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Ente], error) {
	return s.records.List(ctx, f)
}

// Update stores editable fields. Folio and type are kept from the stored
// row.
func (s *Service) Update(ctx context.Context, ente *Ente) error {
	return s.records.Update(ctx, ente)
}

// Delete removes an entity without attached records.
func (s *Service) Delete(ctx context.Context, enteID id.ID) error {
	return s.records.Delete(ctx, enteID)
}

// History returns the change log of an entity, newest first.
func (s *Service) History(ctx context.Context, enteID id.ID, limit int) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, enteID); err != nil {
		return nil, err
	}
	entries, err := s.audit.History(ctx, EntityName, enteID, limit)
	if err != nil {
		return nil, apperror.NewStorage("read entity history", err)
	}
	return entries, nil
}

// Stats returns the dashboard totals and the latest active entities.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if st, ok := s.cache.Get(); ok {
		return st, nil
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return Stats{}, apperror.NewStorage("count entities", err)
	}
	recent, err := s.repo.Recent(ctx, RecentLimit)
	if err != nil {
		return Stats{}, apperror.NewStorage("recent entities", err)
	}

	st := Stats{Counts: counts, RecentEntities: make([]RecentEntity, 0, len(recent))}
	for _, e := range recent {
		st.RecentEntities = append(st.RecentEntities, RecentEntity{ID: e.ID, Name: e.Name, Folio: e.Folio, Type: e.Type})
	}
	s.cache.Set(st)
	return st, nil
}

func (s *Service) keepImmutable(ctx context.Context, ente *Ente) error {
	stored, err := s.repo.GetByID(ctx, ente.ID)
	if err != nil {
		if apperror.IsAppError(err) {
			return err
		}
		return apperror.NewStorage("get entity", err)
	}
	if (ente.Folio != "" && ente.Folio != stored.Folio) || (ente.Type != "" && ente.Type != stored.Type) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "folio and type cannot change after registration").
			WithDetail("folio", stored.Folio)
	}
	ente.Folio = stored.Folio
	ente.Type = stored.Type
	return nil
}

func registeredPayload(e *Ente) map[string]any {
	return map[string]any{
		"id":        e.ID.String(),
		"folio":     e.Folio,
		"name":      e.Name,
		"type":      string(e.Type),
		"status":    string(e.Status),
		"createdAt": e.CreatedAt,
	}
}
