package model

import "time"

type Respondent struct {
	ID                uint      `gorm:"primaryKey"`
	CreatedAt         time.Time `gorm:"type:timestamp"`
	AssessmentID      uint      `gorm:"index;not null"`
	Email             string    `gorm:"index;not null;size:255"`
	Name              string    `gorm:"size:255"`
	Role              string    `gorm:"size:255"`
	Seniority         string    `gorm:"size:64"`
	AssignedQuestions []string  `gorm:"serializer:json;type:text"`
}

type RespondentDTO struct {
	ID                uint      `json:"id"`
	AssessmentID      uint      `json:"assessment_id"`
	Email             string    `json:"email"`
	Name              string    `json:"name,omitempty"`
	Role              string    `json:"role"`
	Seniority         string    `json:"seniority,omitempty"`
	AssignedQuestions []string  `json:"assigned_questions"`
	CreatedAt         time.Time `json:"created_at"`
}

type RespondentPostDTO struct {
	Email             string   `json:"email"`
	Name              string   `json:"name,omitempty"`
	Role              string   `json:"role"`
	Seniority         string   `json:"seniority,omitempty"`
	AssignedQuestions []string `json:"assigned_questions,omitempty"`
}

func (r *Respondent) DTO() *RespondentDTO {
	if r == nil {
		return nil
	}

	q := r.AssignedQuestions
	if q == nil {
		q = []string{}
	}

	return &RespondentDTO{
		ID:                r.ID,
		AssessmentID:      r.AssessmentID,
		Email:             r.Email,
		Name:              r.Name,
		Role:              r.Role,
		Seniority:         r.Seniority,
		AssignedQuestions: q,
		CreatedAt:         r.CreatedAt,
	}
}

type Response struct {
	ID           uint           `gorm:"primaryKey"`
	CreatedAt    time.Time      `gorm:"type:timestamp"`
	UpdatedAt    time.Time      `gorm:"type:timestamp"`
	RespondentID uint           `gorm:"uniqueIndex:idx_response_question;not null"`
	QuestionID   string         `gorm:"uniqueIndex:idx_response_question;not null;size:128"`
	Answer       map[string]any `gorm:"serializer:json;type:text"`
	Context      string         `gorm:"type:text"`
	SubmittedAt  *time.Time
}

type ResponseDTO struct {
	ID           uint           `json:"id"`
	RespondentID uint           `json:"respondent_id"`
	QuestionID   string         `json:"question_id"`
	Answer       map[string]any `json:"answer_value"`
	Context      string         `json:"additional_context,omitempty"`
	SubmittedAt  *time.Time     `json:"submitted_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ResponsePostDTO struct {
	RespondentID uint           `json:"respondent_id"`
	QuestionID   string         `json:"question_id"`
	Answer       map[string]any `json:"answer_value"`
	Context      string         `json:"additional_context,omitempty"`
}

func (r *Response) DTO() *ResponseDTO {
	if r == nil {
		return nil
	}

	return &ResponseDTO{
		ID:           r.ID,
		RespondentID: r.RespondentID,
		QuestionID:   r.QuestionID,
		Answer:       r.Answer,
		Context:      r.Context,
		SubmittedAt:  r.SubmittedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
