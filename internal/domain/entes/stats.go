package entes

import (
	"repopa/internal/core/folio"
	"repopa/internal/core/id"
)

// Counts are the active totals, overall and per type.
type Counts struct {
	TotalEntities   int64 `json:"totalEntities"`
	ActiveOrganisms int64 `json:"activeOrganisms"`
	ActiveTrusts    int64 `json:"activeTrusts"`
	ActiveEPEM      int64 `json:"activeEPEM"`
}

// RecentEntity is the dashboard summary of a recently registered entity.
type RecentEntity struct {
	ID    id.ID      `json:"id"`
	Name  string     `json:"name"`
	Folio string     `json:"folio"`
	Type  folio.Type `json:"type"`
}

// Stats is the dashboard payload.
type Stats struct {
	Counts
	RecentEntities []RecentEntity `json:"recentEntities"`
}

// RecentLimit is the number of entities listed on the dashboard.
const RecentLimit = 5

// StatsCache keeps the last computed Stats between writes.
type StatsCache interface {
	Get() (Stats, bool)
	Set(Stats)
	Invalidate()
}

type noCache struct{}

func (noCache) Get() (Stats, bool) { return Stats{}, false }
func (noCache) Set(Stats)          {}
func (noCache) Invalidate()        {}
