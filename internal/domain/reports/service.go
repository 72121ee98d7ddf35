// Package reports builds the history report of selected entities and
// renders it as CSV or printable HTML.
package reports

import (
	"context"
	"fmt"
	"time"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/core/tx"
	"repopa/internal/domain/entes"
)

// MaxEntities bounds one report.
const MaxEntities = 100

// Service gathers report data.
type Service struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a reports service. txManager may be nil; a
// tx.ReadOnlyManager gives the report a consistent snapshot.
func NewService(repo Repository, txManager tx.Manager) *Service {
	if txManager == nil {
		txManager = tx.Passthrough
	}
	return &Service{repo: repo, txManager: txManager, now: time.Now}
}

// History collects the selected entities, in request order, with their
// documents, members, directors and powers.
func (s *Service) History(ctx context.Context, ids []id.ID) (*History, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, apperror.NewRequired("ids")
	}
	if len(ids) > MaxEntities {
		return nil, apperror.NewValidation(fmt.Sprintf("at most %d entities per report", MaxEntities)).
			WithDetail("field", "ids")
	}

	h := &History{GeneratedAt: s.now()}
	err := s.read(ctx, func(ctx context.Context) error {
		list, err := s.repo.Entes(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[id.ID]*entes.Ente, len(list))
		for _, e := range list {
			byID[e.ID] = e
		}

		h.Entities = make([]EntityHistory, 0, len(ids))
		for _, eid := range ids {
			e, ok := byID[eid]
			if !ok {
				return apperror.NewNotFound("Ente", eid)
			}
			h.Entities = append(h.Entities, EntityHistory{Ente: e})
		}

		docs, err := s.repo.Documents(ctx, ids)
		if err != nil {
			return err
		}
		members, err := s.repo.Members(ctx, ids)
		if err != nil {
			return err
		}
		directors, err := s.repo.Directors(ctx, ids)
		if err != nil {
			return err
		}
		powers, err := s.repo.Powers(ctx, ids)
		if err != nil {
			return err
		}

		docsBy, membersBy := byEntity(docs), byEntity(members)
		directorsBy, powersBy := byEntity(directors), byEntity(powers)
		for i := range h.Entities {
			eid := h.Entities[i].Ente.ID
			h.Entities[i].Documents = docsBy[eid]
			h.Entities[i].Members = membersBy[eid]
			h.Entities[i].Directors = directorsBy[eid]
			h.Entities[i].Powers = powersBy[eid]
		}
		return nil
	})
	if err != nil {
		if _, ok := apperror.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperror.NewStorage("history report", err)
	}
	return h, nil
}

func (s *Service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.txManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return s.txManager.RunInTransaction(ctx, fn)
}

type attached interface {
	GetEntityID() id.ID
}

func byEntity[T attached](rows []T) map[id.ID][]T {
	out := make(map[id.ID][]T)
	for _, r := range rows {
		out[r.GetEntityID()] = append(out[r.GetEntityID()], r)
	}
	return out
}

func dedupe(ids []id.ID) []id.ID {
	seen := make(map[id.ID]bool, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if id.IsNil(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
