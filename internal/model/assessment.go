package model

import "time"

type Project struct {
	ID             uint      `gorm:"primaryKey"`
	CreatedAt      time.Time `gorm:"type:timestamp"`
	UpdatedAt      time.Time `gorm:"type:timestamp"`
	OrganizationID string    `gorm:"index;not null;size:255"`
	Name           string    `gorm:"not null;size:255"`
	Description    string    `gorm:"type:text"`
	Sector         string    `gorm:"size:255"`
	ProjectType    string    `gorm:"size:64"`
	AssessmentMode string    `gorm:"size:64"`
	CreatedBy      string    `gorm:"size:255"`
}

type ProjectDTO struct {
	ID             uint      `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Sector         string    `json:"sector,omitempty"`
	ProjectType    string    `json:"project_type,omitempty"`
	AssessmentMode string    `json:"assessment_mode,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ProjectPostDTO struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Sector         string `json:"sector,omitempty"`
	ProjectType    string `json:"project_type,omitempty"`
	AssessmentMode string `json:"assessment_mode,omitempty"`
	CreatedBy      string `json:"created_by,omitempty"`
}

func (p *Project) DTO() *ProjectDTO {
	if p == nil {
		return nil
	}

	return &ProjectDTO{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Description:    p.Description,
		Sector:         p.Sector,
		ProjectType:    p.ProjectType,
		AssessmentMode: p.AssessmentMode,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type Assessment struct {
	ID             uint             `gorm:"primaryKey"`
	CreatedAt      time.Time        `gorm:"type:timestamp"`
	UpdatedAt      time.Time        `gorm:"type:timestamp"`
	ProjectID      *uint            `gorm:"index"`
	Project        *Project         `gorm:"constraint:OnDelete:SET NULL"`
	OrganizationID string           `gorm:"index;not null;size:255"`
	PartnerOrgName string           `gorm:"size:255"`
	Sector         string           `gorm:"not null;size:255"`
	Status         AssessmentStatus `gorm:"index;not null;size:32"`
	Deadline       *time.Time
	SubmittedAt    *time.Time
}

type AssessmentDTO struct {
	ID             uint             `json:"id"`
	ProjectID      *uint            `json:"project_id,omitempty"`
	OrganizationID string           `json:"organization_id"`
	PartnerOrgName string           `json:"partner_org_name,omitempty"`
	Sector         string           `json:"sector"`
	Status         AssessmentStatus `json:"status"`
	Deadline       *time.Time       `json:"deadline,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
}

type AssessmentPostDTO struct {
	OrganizationID string     `json:"organization_id"`
	Sector         string     `json:"sector"`
	ProjectID      *uint      `json:"project_id,omitempty"`
	PartnerOrgName string     `json:"partner_org_name,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

// AssessmentFilter narrows assessment listings; zero fields are ignored.
type AssessmentFilter struct {
	OrganizationID string
	ProjectID      uint
	Status         AssessmentStatus
}

func (a *Assessment) DTO() *AssessmentDTO {
	if a == nil {
		return nil
	}

	return &AssessmentDTO{
		ID:             a.ID,
		ProjectID:      a.ProjectID,
		OrganizationID: a.OrganizationID,
		PartnerOrgName: a.PartnerOrgName,
		Sector:         a.Sector,
		Status:         a.Status,
		Deadline:       a.Deadline,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		SubmittedAt:    a.SubmittedAt,
	}
}

// DisplayName is the name partners see in notifications.
func (a *Assessment) DisplayName() string {
	if a.Project != nil && a.Project.Name != "" {
		return a.Project.Name
	}

	return "Assessment #" + itoa(a.ID)
}
