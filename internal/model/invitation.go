package model

import "time"

const DefaultInvitationRole = "partner_admin"

type Invitation struct {
	ID             uint             `gorm:"primaryKey"`
	AssessmentID   uint             `gorm:"index;not null"`
	Assessment     *Assessment      `gorm:"constraint:OnDelete:CASCADE"`
	PartnerEmail   string           `gorm:"index;not null;size:255"`
	PartnerOrgName string           `gorm:"size:255"`
	Role           string           `gorm:"not null;size:64"`
	Token          string           `gorm:"uniqueIndex;not null;size:128"`
	Status         InvitationStatus `gorm:"index;not null;size:16"`
	DeclineReason  string           `gorm:"type:text"`
	InvitedAt      time.Time        `gorm:"type:timestamp"`
	AcceptedAt     *time.Time
	DeclinedAt     *time.Time
	ExpiresAt      time.Time `gorm:"type:timestamp;not null"`
}

type InvitationDTO struct {
	ID             uint             `json:"id"`
	AssessmentID   uint             `json:"assessment_id"`
	PartnerEmail   string           `json:"partner_email"`
	PartnerOrgName string           `json:"partner_org_name,omitempty"`
	Role           string           `json:"role"`
	Token          string           `json:"token,omitempty"`
	Status         InvitationStatus `json:"status"`
	DeclineReason  string           `json:"decline_reason,omitempty"`
	InvitedAt      time.Time        `json:"invited_at"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
	DeclinedAt     *time.Time       `json:"declined_at,omitempty"`
	ExpiresAt      time.Time        `json:"expires_at"`
}

type InvitationPostDTO struct {
	AssessmentID   uint   `json:"assessment_id"`
	PartnerEmail   string `json:"partner_email"`
	PartnerOrgName string `json:"partner_org_name"`
	Role           string `json:"role,omitempty"`
	DeadlineDays   int    `json:"deadline_days,omitempty"`
}

func (i *Invitation) DTO() *InvitationDTO {
	if i == nil {
		return nil
	}

	return &InvitationDTO{
		ID:             i.ID,
		AssessmentID:   i.AssessmentID,
		PartnerEmail:   i.PartnerEmail,
		PartnerOrgName: i.PartnerOrgName,
		Role:           i.Role,
		Token:          i.Token,
		Status:         i.Status,
		DeclineReason:  i.DeclineReason,
		InvitedAt:      i.InvitedAt,
		AcceptedAt:     i.AcceptedAt,
		DeclinedAt:     i.DeclinedAt,
		ExpiresAt:      i.ExpiresAt,
	}
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
