// Package regdoc keeps the regulatory documents of each entity: creation
// decrees, statutes, internal regulations, manuals.
package regdoc

import (
	"context"
	"time"

	"repopa/internal/core/entity"
	"repopa/internal/core/id"
	"repopa/internal/domain/records"
)

// Document is a regulatory instrument of an entity.
type Document struct {
	entity.Base

	EntityID        id.ID      `db:"entity_id" json:"entityId"`
	DocumentType    string     `db:"document_type" json:"documentType"`
	DocumentName    string     `db:"document_name" json:"documentName"`
	IssueDate       *time.Time `db:"issue_date" json:"issueDate,omitempty"`
	PublicationDate *time.Time `db:"publication_date" json:"publicationDate,omitempty"`
	Validity        string     `db:"validity" json:"validity"`
	File            string     `db:"file" json:"file"`
	Notes           string     `db:"notes" json:"notes"`
}

// NewDocument creates an empty document for entityID.
func NewDocument(entityID id.ID) *Document {
	return &Document{Base: entity.NewBase(), EntityID: entityID}
}

// GetEntityID implements records.Attached.
func (d *Document) GetEntityID() id.ID { return d.EntityID }

var _ records.Attached = (*Document)(nil)

// Validate implements entity.Validatable.
func (d *Document) Validate(_ context.Context) error {
	if err := records.RequireEntity(d.EntityID); err != nil {
		return err
	}
	if err := records.RequireText("documentType", d.DocumentType); err != nil {
		return err
	}
	if err := records.RequireText("documentName", d.DocumentName); err != nil {
		return err
	}
	return records.CheckOrder("issueDate", d.IssueDate, "publicationDate", d.PublicationDate)
}
