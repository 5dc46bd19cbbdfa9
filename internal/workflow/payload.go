package workflow

import (
	"github.com/trustform/assessd/internal/model"
)

// SubmissionPayload collects everything the scoring engine needs for an assessment:
// all responses of all respondents with their evidence.
func (s *Store) SubmissionPayload(id uint) (*model.ScoringRequest, error) {
	a, err := s.GetAssessment(id)
	if err != nil {
		return nil, err
	}

	req := &model.ScoringRequest{
		AssessmentID:   a.ID,
		OrganizationID: a.OrganizationID,
		Sector:         a.Sector,
		Responses:      []model.ScoredResponse{},
	}

	respondents, err := s.ListRespondents(a.ID)
	if err != nil {
		return nil, err
	}

	if len(respondents) == 0 {
		return req, nil
	}

	roles := make(map[uint]string, len(respondents))
	ids := make([]uint, 0, len(respondents))

	for _, r := range respondents {
		roles[r.ID] = r.Role
		ids = append(ids, r.ID)
	}

	responses, err := s.dbm.ResponseQuery().Respondent(ids...).Limit(0).Get()
	if err != nil {
		return nil, err
	}

	if len(responses) == 0 {
		return req, nil
	}

	respIDs := make([]uint, 0, len(responses))
	for _, r := range responses {
		respIDs = append(respIDs, r.ID)
	}

	files, err := s.dbm.EvidenceQuery().Response(respIDs...).Limit(0).Get()
	if err != nil {
		return nil, err
	}

	evidence := make(map[uint][]model.ScoredEvidence)

	for _, e := range files {
		if e.ScanStatus == model.EvidenceScanInfected || e.ScanStatus == model.EvidenceRejected {
			continue
		}

		evidence[e.ResponseID] = append(evidence[e.ResponseID], model.ScoredEvidence{
			FileName:      e.FileName,
			FileType:      e.FileType,
			StorageKey:    e.StorageKey,
			StorageBucket: e.StorageBucket,
		})
	}

	for _, r := range responses {
		ev := evidence[r.ID]
		if ev == nil {
			ev = []model.ScoredEvidence{}
		}

		req.Responses = append(req.Responses, model.ScoredResponse{
			QuestionID:     r.QuestionID,
			Answer:         r.Answer,
			Context:        r.Context,
			Evidence:       ev,
			RespondentRole: roles[r.RespondentID],
		})
	}

	return req, nil
}

// FirstInvitation returns the earliest invitation of an assessment or nil.
func (s *Store) FirstInvitation(id uint) (*model.Invitation, error) {
	list, err := s.dbm.InvitationQuery().Assessment(id).Order("invited_at, id").Limit(1).Get()
	if err != nil || len(list) == 0 {
		return nil, err
	}

	return list[0], nil
}
