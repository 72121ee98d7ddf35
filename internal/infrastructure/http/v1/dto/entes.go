package dto

import (
	"strings"

	"repopa/internal/domain/entes"
)

// RegisterEnteRequest is the body of POST /entes. Name and type are
// checked by the service so a missing one reports the field name.
type RegisterEnteRequest struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Purpose             string `json:"purpose"`
	Address             string `json:"address"`
	Status              string `json:"status"`
	CreationInstrument  string `json:"creationInstrument"`
	CreationDate        *Date  `json:"creationDate"`
	OfficialPublication string `json:"officialPublication"`
	Observations        string `json:"observations"`
}

// ToDomain converts to the service request.
func (r *RegisterEnteRequest) ToDomain() entes.RegisterRequest {
	return entes.RegisterRequest{
		Name:                r.Name,
		Type:                r.Type,
		Purpose:             r.Purpose,
		Address:             r.Address,
		Status:              r.Status,
		CreationInstrument:  r.CreationInstrument,
		CreationDate:        r.CreationDate.Ptr(),
		OfficialPublication: r.OfficialPublication,
		Observations:        r.Observations,
	}
}

// RegisterEnteResponse is returned with 201.
type RegisterEnteResponse struct {
	ID    string `json:"id"`
	Folio string `json:"folio"`
}

// FromRegistration creates the response of a registration.
func FromRegistration(reg *entes.Registration) RegisterEnteResponse {
	return RegisterEnteResponse{ID: reg.Ente.ID.String(), Folio: reg.Folio}
}

// UpdateEnteRequest replaces the editable fields of an entity. Folio and
// type cannot be changed.
type UpdateEnteRequest struct {
	Name                string `json:"name" binding:"required"`
	Purpose             string `json:"purpose"`
	Address             string `json:"address"`
	Status              string `json:"status"`
	CreationInstrument  string `json:"creationInstrument"`
	CreationDate        *Date  `json:"creationDate"`
	OfficialPublication string `json:"officialPublication"`
	Observations        string `json:"observations"`
	Version             int    `json:"version" binding:"required,min=1"`
}

// Apply copies the request onto the stored entity. An empty status keeps
// the stored one.
func (r *UpdateEnteRequest) Apply(e *entes.Ente) error {
	status := e.Status
	if strings.TrimSpace(r.Status) != "" {
		var err error
		if status, err = entes.ParseStatus(r.Status); err != nil {
			return err
		}
	}
	e.Name = r.Name
	e.Purpose = r.Purpose
	e.Address = r.Address
	e.Status = status
	e.CreationInstrument = r.CreationInstrument
	e.CreationDate = r.CreationDate.Ptr()
	e.OfficialPublication = r.OfficialPublication
	e.Observations = r.Observations
	e.Version = r.Version
	return nil
}

// FolioPreviewResponse is the body of GET /entes/folio-preview.
type FolioPreviewResponse struct {
	Folio string `json:"folio"`
}
