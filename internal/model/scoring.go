package model

import "encoding/json"

// ScoringRequest is the body posted to the scoring engine.
type ScoringRequest struct {
	AssessmentID   uint             `json:"assessment_id"`
	OrganizationID string           `json:"organization_id"`
	Sector         string           `json:"sector"`
	Responses      []ScoredResponse `json:"responses"`
}

type ScoredResponse struct {
	QuestionID     string           `json:"question_id"`
	Answer         map[string]any   `json:"answer"`
	Context        string           `json:"context"`
	Evidence       []ScoredEvidence `json:"evidence"`
	RespondentRole string           `json:"respondent_role"`
}

type ScoredEvidence struct {
	FileName      string `json:"file_name"`
	FileType      string `json:"file_type"`
	StorageKey    string `json:"storage_key"`
	StorageBucket string `json:"storage_bucket"`
}

// ScoringResult is the engine answer on success.
type ScoringResult struct {
	OverallScore float64            `json:"overall_score"`
	Confidence   float64            `json:"confidence"`
	LayerScores  map[string]float64 `json:"layer_scores"`
	VetoResults  json.RawMessage    `json:"veto_results,omitempty"`
	Narrative    json.RawMessage    `json:"narrative,omitempty"`
}
