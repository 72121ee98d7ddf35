package dto

import (
	"strings"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/inforequest"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
)

// Record writes are full replacements: POST carries the owning entity,
// PUT carries the version read by the client.

// ParseEntityID parses the entityId of a create request.
func ParseEntityID(raw string) (id.ID, error) {
	if raw == "" {
		return id.Nil(), apperror.NewRequired("entityId")
	}
	v, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid entityId").WithDetail("field", "entityId")
	}
	return v, nil
}

// --- Governing body ---

// MemberFields are the editable fields of a governing body member.
type MemberFields struct {
	BodyType              string `json:"bodyType"`
	MemberName            string `json:"memberName"`
	Position              string `json:"position"`
	AppointmentDate       *Date  `json:"appointmentDate"`
	DesignationInstrument string `json:"designationInstrument"`
	Status                string `json:"status"`
	Observations          string `json:"observations"`
}

// apply leaves the status as it is when the field is empty.
func (f *MemberFields) apply(m *governingbody.Member) error {
	status := m.Status
	if strings.TrimSpace(f.Status) != "" {
		var err error
		if status, err = governingbody.ParseStatus(f.Status); err != nil {
			return err
		}
	}
	m.BodyType = f.BodyType
	m.MemberName = f.MemberName
	m.Position = f.Position
	m.AppointmentDate = f.AppointmentDate.Ptr()
	m.DesignationInstrument = f.DesignationInstrument
	m.Status = status
	m.Observations = f.Observations
	return nil
}

type CreateMemberRequest struct {
	EntityID string `json:"entityId"`
	MemberFields
}

type UpdateMemberRequest struct {
	MemberFields
	Version int `json:"version" binding:"required,min=1"`
}

// NewMember maps a create request.
func NewMember(r CreateMemberRequest) (*governingbody.Member, error) {
	entityID, err := ParseEntityID(r.EntityID)
	if err != nil {
		return nil, err
	}
	m := governingbody.NewMember(entityID)
	if err := r.apply(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ApplyMember maps an update request onto the stored member.
func ApplyMember(r UpdateMemberRequest, m *governingbody.Member) (*governingbody.Member, error) {
	if err := r.apply(m); err != nil {
		return nil, err
	}
	m.Version = r.Version
	return m, nil
}

// --- Directors ---

// DirectorFields are the editable fields of a director term.
type DirectorFields struct {
	Name               string `json:"name"`
	Position           string `json:"position"`
	ResponsibilityType string `json:"responsibilityType"`
	StartDate          *Date  `json:"startDate"`
	EndDate            *Date  `json:"endDate"`
	SupportDocument    string `json:"supportDocument"`
}

func (f *DirectorFields) apply(d *director.Director) {
	d.Name = f.Name
	d.Position = f.Position
	d.ResponsibilityType = f.ResponsibilityType
	d.StartDate = f.StartDate.Ptr()
	d.EndDate = f.EndDate.Ptr()
	d.SupportDocument = f.SupportDocument
}

type CreateDirectorRequest struct {
	EntityID string `json:"entityId"`
	DirectorFields
}

type UpdateDirectorRequest struct {
	DirectorFields
	Version int `json:"version" binding:"required,min=1"`
}

func NewDirector(r CreateDirectorRequest) (*director.Director, error) {
	entityID, err := ParseEntityID(r.EntityID)
	if err != nil {
		return nil, err
	}
	d := director.NewDirector(entityID)
	r.apply(d)
	return d, nil
}

func ApplyDirector(r UpdateDirectorRequest, d *director.Director) (*director.Director, error) {
	r.apply(d)
	d.Version = r.Version
	return d, nil
}

// --- Powers ---

// PowerFields are the editable fields of a power of attorney.
type PowerFields struct {
	PowerType  string   `json:"powerType"`
	Attorneys  []string `json:"attorneys"`
	GrantDate  *Date    `json:"grantDate"`
	Document   string   `json:"document"`
	Revocation string   `json:"revocation"`
	Validity   string   `json:"validity"`
}

func (f *PowerFields) apply(p *power.Power) {
	p.PowerType = f.PowerType
	p.Attorneys = power.CleanAttorneys(f.Attorneys)
	p.GrantDate = f.GrantDate.Ptr()
	p.Document = f.Document
	p.Revocation = f.Revocation
	p.Validity = f.Validity
}

type CreatePowerRequest struct {
	EntityID string `json:"entityId"`
	PowerFields
}

type UpdatePowerRequest struct {
	PowerFields
	Version int `json:"version" binding:"required,min=1"`
}

func NewPower(r CreatePowerRequest) (*power.Power, error) {
	entityID, err := ParseEntityID(r.EntityID)
	if err != nil {
		return nil, err
	}
	p := power.NewPower(entityID)
	r.apply(p)
	return p, nil
}

func ApplyPower(r UpdatePowerRequest, p *power.Power) (*power.Power, error) {
	r.apply(p)
	p.Version = r.Version
	return p, nil
}

// --- Regulatory documents ---

// DocumentFields are the editable fields of a regulatory document.
type DocumentFields struct {
	DocumentType    string `json:"documentType"`
	DocumentName    string `json:"documentName"`
	IssueDate       *Date  `json:"issueDate"`
	PublicationDate *Date  `json:"publicationDate"`
	Validity        string `json:"validity"`
	File            string `json:"file"`
	Notes           string `json:"notes"`
}

func (f *DocumentFields) apply(d *regdoc.Document) {
	d.DocumentType = f.DocumentType
	d.DocumentName = f.DocumentName
	d.IssueDate = f.IssueDate.Ptr()
	d.PublicationDate = f.PublicationDate.Ptr()
	d.Validity = f.Validity
	d.File = f.File
	d.Notes = f.Notes
}

type CreateDocumentRequest struct {
	EntityID string `json:"entityId"`
	DocumentFields
}

type UpdateDocumentRequest struct {
	DocumentFields
	Version int `json:"version" binding:"required,min=1"`
}

func NewDocument(r CreateDocumentRequest) (*regdoc.Document, error) {
	entityID, err := ParseEntityID(r.EntityID)
	if err != nil {
		return nil, err
	}
	d := regdoc.NewDocument(entityID)
	r.apply(d)
	return d, nil
}

func ApplyDocument(r UpdateDocumentRequest, d *regdoc.Document) (*regdoc.Document, error) {
	r.apply(d)
	d.Version = r.Version
	return d, nil
}

// --- Information requests ---

// RequestFields are the editable fields of an information request.
type RequestFields struct {
	RequestDate  *Date  `json:"requestDate"`
	Requester    string `json:"requester"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	ResponseDate *Date  `json:"responseDate"`
}

// apply leaves the status as it is when the field is empty.
func (f *RequestFields) apply(r *inforequest.Request) error {
	status := r.Status
	if strings.TrimSpace(f.Status) != "" {
		var err error
		if status, err = inforequest.ParseStatus(f.Status); err != nil {
			return err
		}
	}
	r.RequestDate = f.RequestDate.Ptr()
	r.Requester = f.Requester
	r.Description = f.Description
	r.Status = status
	r.ResponseDate = f.ResponseDate.Ptr()
	return nil
}

type CreateInfoRequest struct {
	EntityID string `json:"entityId"`
	RequestFields
}

type UpdateInfoRequest struct {
	RequestFields
	Version int `json:"version" binding:"required,min=1"`
}

func NewInfoRequest(r CreateInfoRequest) (*inforequest.Request, error) {
	entityID, err := ParseEntityID(r.EntityID)
	if err != nil {
		return nil, err
	}
	req := inforequest.NewRequest(entityID)
	if err := r.apply(req); err != nil {
		return nil, err
	}
	return req, nil
}

func ApplyInfoRequest(r UpdateInfoRequest, req *inforequest.Request) (*inforequest.Request, error) {
	if err := r.apply(req); err != nil {
		return nil, err
	}
	req.Version = r.Version
	return req, nil
}
