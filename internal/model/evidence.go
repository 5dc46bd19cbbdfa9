package model

import "time"

type Evidence struct {
	ID                 uint           `gorm:"primaryKey"`
	ResponseID         uint           `gorm:"index;not null"`
	FileName           string         `gorm:"not null;size:255"`
	FileType           string         `gorm:"size:64"`
	FileSize           int64          `gorm:"not null;default:0"`
	StorageKey         string         `gorm:"uniqueIndex;not null;size:512"`
	StorageBucket      string         `gorm:"size:255"`
	UploadedBy         string         `gorm:"size:255"`
	UploadedAt         time.Time      `gorm:"type:timestamp"`
	ScanStatus         EvidenceStatus `gorm:"index;not null;size:32"`
	VerificationStatus string         `gorm:"size:32"`
	VerifiedBy         string         `gorm:"size:255"`
	VerifiedAt         *time.Time
}

func (Evidence) TableName() string {
	return "evidence"
}

type EvidenceDTO struct {
	ID                 uint           `json:"id"`
	ResponseID         uint           `json:"response_id"`
	FileName           string         `json:"file_name"`
	FileType           string         `json:"file_type,omitempty"`
	FileSize           int64          `json:"file_size"`
	StorageKey         string         `json:"storage_key"`
	StorageBucket      string         `json:"storage_bucket,omitempty"`
	UploadedBy         string         `json:"uploaded_by,omitempty"`
	UploadedAt         time.Time      `json:"uploaded_at"`
	ScanStatus         EvidenceStatus `json:"virus_scan_status"`
	VerificationStatus string         `json:"verification_status,omitempty"`
	VerifiedBy         string         `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time     `json:"verified_at,omitempty"`
	DownloadURL        string         `json:"download_url,omitempty"`
}

type EvidencePostDTO struct {
	ResponseID    uint   `json:"response_id"`
	FileName      string `json:"file_name"`
	FileType      string `json:"file_type"`
	FileSize      int64  `json:"file_size"`
	StorageKey    string `json:"storage_key"`
	StorageBucket string `json:"storage_bucket"`
	UploadedBy    string `json:"uploaded_by"`
}

type UploadSlotRequestDTO struct {
	AssessmentID uint   `json:"assessment_id"`
	EvidenceType string `json:"evidence_type"`
	FileName     string `json:"file_name"`
	ContentType  string `json:"content_type,omitempty"`
}

func (e *Evidence) DTO() *EvidenceDTO {
	if e == nil {
		return nil
	}

	return &EvidenceDTO{
		ID:                 e.ID,
		ResponseID:         e.ResponseID,
		FileName:           e.FileName,
		FileType:           e.FileType,
		FileSize:           e.FileSize,
		StorageKey:         e.StorageKey,
		StorageBucket:      e.StorageBucket,
		UploadedBy:         e.UploadedBy,
		UploadedAt:         e.UploadedAt,
		ScanStatus:         e.ScanStatus,
		VerificationStatus: e.VerificationStatus,
		VerifiedBy:         e.VerifiedBy,
		VerifiedAt:         e.VerifiedAt,
	}
}
