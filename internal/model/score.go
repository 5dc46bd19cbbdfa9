package model

import (
	"encoding/json"
	"time"
)

type AssessmentScore struct {
	ID              uint               `gorm:"primaryKey"`
	CreatedAt       time.Time          `gorm:"type:timestamp"`
	UpdatedAt       time.Time          `gorm:"type:timestamp"`
	AssessmentID    uint               `gorm:"uniqueIndex;not null"`
	OverallScore    float64            `gorm:"not null;default:0"`
	Confidence      float64            `gorm:"not null;default:0"`
	LayerScores     map[string]float64 `gorm:"serializer:json;type:text"`
	VetoResults     json.RawMessage    `gorm:"serializer:json;type:text"`
	Narrative       json.RawMessage    `gorm:"serializer:json;type:text"`
	GeneratedAt     time.Time          `gorm:"type:timestamp"`
	AnalystReviewed bool               `gorm:"not null;default:false"`
	AnalystNotes    string             `gorm:"type:text"`
}

type AssessmentScoreDTO struct {
	AssessmentID    uint               `json:"assessment_id"`
	OverallScore    float64            `json:"overall_score"`
	Confidence      float64            `json:"confidence"`
	LayerScores     map[string]float64 `json:"layer_scores"`
	VetoResults     json.RawMessage    `json:"veto_results,omitempty"`
	Narrative       json.RawMessage    `json:"narrative,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
	AnalystReviewed bool               `json:"analyst_reviewed"`
	AnalystNotes    string             `json:"analyst_notes,omitempty"`
}

func (s *AssessmentScore) DTO() *AssessmentScoreDTO {
	if s == nil {
		return nil
	}

	return &AssessmentScoreDTO{
		AssessmentID:    s.AssessmentID,
		OverallScore:    s.OverallScore,
		Confidence:      s.Confidence,
		LayerScores:     s.LayerScores,
		VetoResults:     s.VetoResults,
		Narrative:       s.Narrative,
		GeneratedAt:     s.GeneratedAt,
		AnalystReviewed: s.AnalystReviewed,
		AnalystNotes:    s.AnalystNotes,
	}
}

// FinalizeDTO is the analyst decision closing an assessment.
type FinalizeDTO struct {
	Status AssessmentStatus `json:"status"`
	Notes  string           `json:"notes,omitempty"`
}
