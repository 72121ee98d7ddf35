package record_repo

import (
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/inforequest"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
	"repopa/internal/infrastructure/storage/postgres"
)

var (
	_ governingbody.Repository = (*BaseRepo[*governingbody.Member])(nil)
	_ director.Repository      = (*BaseRepo[*director.Director])(nil)
	_ power.Repository         = (*BaseRepo[*power.Power])(nil)
	_ regdoc.Repository        = (*BaseRepo[*regdoc.Document])(nil)
	_ inforequest.Repository   = (*BaseRepo[*inforequest.Request])(nil)
)

// NewGoverningBodyRepo stores members in "governing_bodies".
func NewGoverningBodyRepo(db postgres.QuerierProvider) *BaseRepo[*governingbody.Member] {
	return NewBaseRepo(db, BaseConfig[*governingbody.Member]{
		Table:        "governing_bodies",
		Columns:      postgres.ExtractDBColumns[governingbody.Member](),
		SearchCols:   []string{"member_name", "position", "body_type"},
		DefaultOrder: "appointment_date DESC NULLS LAST, member_name ASC",
		New:          func() *governingbody.Member { return &governingbody.Member{} },
	})
}

// NewDirectorRepo stores directors in "directors".
func NewDirectorRepo(db postgres.QuerierProvider) *BaseRepo[*director.Director] {
	return NewBaseRepo(db, BaseConfig[*director.Director]{
		Table:        "directors",
		Columns:      postgres.ExtractDBColumns[director.Director](),
		SearchCols:   []string{"name", "position"},
		DefaultOrder: "start_date DESC NULLS LAST, name ASC",
		New:          func() *director.Director { return &director.Director{} },
	})
}

// NewPowerRepo stores powers in "powers". Attorneys map to a text[]
// column.
func NewPowerRepo(db postgres.QuerierProvider) *BaseRepo[*power.Power] {
	return NewBaseRepo(db, BaseConfig[*power.Power]{
		Table:        "powers",
		Columns:      postgres.ExtractDBColumns[power.Power](),
		SearchCols:   []string{"power_type", "document"},
		DefaultOrder: "grant_date DESC NULLS LAST",
		New:          func() *power.Power { return &power.Power{} },
	})
}

// NewRegDocRepo stores documents in "regulatory_documents".
func NewRegDocRepo(db postgres.QuerierProvider) *BaseRepo[*regdoc.Document] {
	return NewBaseRepo(db, BaseConfig[*regdoc.Document]{
		Table:        "regulatory_documents",
		Columns:      postgres.ExtractDBColumns[regdoc.Document](),
		SearchCols:   []string{"document_name", "document_type"},
		DefaultOrder: "publication_date DESC NULLS LAST, document_name ASC",
		New:          func() *regdoc.Document { return &regdoc.Document{} },
	})
}

// NewInfoRequestRepo stores requests in "information_requests".
func NewInfoRequestRepo(db postgres.QuerierProvider) *BaseRepo[*inforequest.Request] {
	return NewBaseRepo(db, BaseConfig[*inforequest.Request]{
		Table:        "information_requests",
		Columns:      postgres.ExtractDBColumns[inforequest.Request](),
		SearchCols:   []string{"requester", "description"},
		DefaultOrder: "request_date DESC NULLS LAST, created_at DESC",
		New:          func() *inforequest.Request { return &inforequest.Request{} },
	})
}
