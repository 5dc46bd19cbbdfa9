package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/internal/storage"
)

var unscanned = []model.EvidenceStatus{model.EvidenceUploading, model.EvidenceUploaded, model.EvidenceScanPending}

// RequestUploadSlot reserves a storage key for a new evidence file of an assessment.
func (s *Store) RequestUploadSlot(req *model.UploadSlotRequestDTO) (*storage.UploadSlot, error) {
	if req == nil || req.FileName == "" || req.EvidenceType == "" {
		return nil, fault.BadRequestf("evidence_type and file_name are required")
	}

	if s.storage == nil {
		return nil, fmt.Errorf("%w: storage is not configured", fault.DependencyFailure)
	}

	a, err := s.GetAssessment(req.AssessmentID)
	if err != nil {
		return nil, err
	}

	return storage.NewUploadSlot(s.storage, a.ID, req.EvidenceType, req.FileName)
}

// RecordEvidence registers an uploaded file against a response. New evidence waits for a virus scan.
func (s *Store) RecordEvidence(dto *model.EvidencePostDTO) (*model.Evidence, error) {
	if dto == nil || dto.StorageKey == "" || dto.FileName == "" {
		return nil, fault.BadRequestf("storage_key and file_name are required")
	}

	res, err := s.GetResponse(dto.ResponseID)
	if err != nil {
		return nil, err
	}

	r, err := s.GetRespondent(res.RespondentID)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(dto.StorageKey, fmt.Sprintf("assessments/%d/", r.AssessmentID)) {
		return nil, fault.BadRequestf("storage key %s does not belong to assessment %d", dto.StorageKey, r.AssessmentID)
	}

	n, err := s.dbm.EvidenceQuery().StorageKey(dto.StorageKey).Count()
	if err != nil {
		return nil, err
	}

	if n > 0 {
		return nil, fault.BadRequestf("storage key %s is already recorded", dto.StorageKey)
	}

	bucket := dto.StorageBucket
	if bucket == "" && s.storage != nil {
		bucket = s.storage.Bucket()
	}

	e := &model.Evidence{
		ResponseID:         res.ID,
		FileName:           dto.FileName,
		FileType:           dto.FileType,
		FileSize:           dto.FileSize,
		StorageKey:         dto.StorageKey,
		StorageBucket:      bucket,
		UploadedBy:         dto.UploadedBy,
		UploadedAt:         s.now(),
		ScanStatus:         model.EvidenceScanPending,
		VerificationStatus: model.VerificationPending,
	}

	if err := s.dbm.Create(e); err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("evidence %d %s recorded for response %d", e.ID, e.FileName, res.ID))
	s.publish(events.EvidenceRecorded, s.orgOf(r.AssessmentID), r.AssessmentID, e.ID, string(e.ScanStatus))

	return e, nil
}

func (s *Store) GetEvidence(id uint) (*model.Evidence, error) {
	e, err := s.dbm.EvidenceQuery().Id(id).One()
	if err != nil {
		return nil, err
	}

	if e == nil {
		return nil, fault.NotFoundf("evidence %d", id)
	}

	return e, nil
}

func (s *Store) ListEvidence(responseID uint) ([]*model.Evidence, error) {
	return s.dbm.EvidenceQuery().Response(responseID).Limit(0).Get()
}

// DownloadURL presigns a download link for evidence. Infected files are never served.
func (s *Store) DownloadURL(e *model.Evidence) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("%w: storage is not configured", fault.DependencyFailure)
	}

	if e.ScanStatus == model.EvidenceScanInfected {
		return "", fault.InvalidStatef("evidence %d is infected", e.ID)
	}

	return s.storage.PresignDownload(e.StorageKey)
}

// SetScanStatus stores the virus scanner verdict for evidence not scanned yet.
func (s *Store) SetScanStatus(id uint, st model.EvidenceStatus) (*model.Evidence, error) {
	if !st.IsScanResult() {
		return nil, fault.BadRequestf("%s is not a scan result", st)
	}

	return s.evidenceTransition(id, unscanned, map[string]any{"scan_status": st})
}

// VerifyEvidence records the analyst review of a clean file.
func (s *Store) VerifyEvidence(id uint, verifier string, accepted bool) (*model.Evidence, error) {
	upd := map[string]any{
		"verified_by": verifier,
		"verified_at": s.now(),
	}

	if accepted {
		upd["scan_status"] = model.EvidenceVerified
		upd["verification_status"] = model.VerificationVerified
	} else {
		upd["scan_status"] = model.EvidenceRejected
		upd["verification_status"] = model.VerificationRejected
	}

	return s.evidenceTransition(id, []model.EvidenceStatus{model.EvidenceScanClean}, upd)
}

func (s *Store) evidenceTransition(id uint, from []model.EvidenceStatus, upd map[string]any) (*model.Evidence, error) {
	e, err := s.GetEvidence(id)
	if err != nil {
		return nil, err
	}

	if err := s.dbm.EvidenceQuery().Id(id).ScanStatus(from...).Update(upd); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, fault.InvalidStatef("evidence %d is %s", id, e.ScanStatus)
		}

		return nil, err
	}

	if e, err = s.GetEvidence(id); err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("evidence %d is %s", e.ID, e.ScanStatus))

	if res, _ := s.dbm.ResponseQuery().Id(e.ResponseID).One(); res != nil {
		if r, _ := s.dbm.RespondentQuery().Id(res.RespondentID).One(); r != nil {
			s.publish(events.EvidenceStatusChanged, s.orgOf(r.AssessmentID), r.AssessmentID, e.ID, string(e.ScanStatus))
		}
	}

	return e, nil
}
