package model

type AssessmentStatus string

const (
	StatusDraft         AssessmentStatus = "DRAFT"
	StatusInProgress    AssessmentStatus = "IN_PROGRESS"
	StatusSubmitted     AssessmentStatus = "SUBMITTED"
	StatusScoring       AssessmentStatus = "SCORING"
	StatusAnalystReview AssessmentStatus = "ANALYST_REVIEW"
	StatusCompleted     AssessmentStatus = "COMPLETED"
	StatusRejected      AssessmentStatus = "REJECTED"
)

var assessmentTransitions = map[AssessmentStatus][]AssessmentStatus{
	StatusDraft:         {StatusInProgress, StatusSubmitted},
	StatusInProgress:    {StatusSubmitted},
	StatusSubmitted:     {StatusScoring, StatusAnalystReview},
	StatusScoring:       {StatusAnalystReview},
	StatusAnalystReview: {StatusCompleted, StatusRejected},
}

// SubmittableStatuses are the states submit is legal from.
var SubmittableStatuses = []AssessmentStatus{StatusDraft, StatusInProgress}

func (s AssessmentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusSubmitted, StatusScoring,
		StatusAnalystReview, StatusCompleted, StatusRejected:
		return true
	}

	return false
}

func (s AssessmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

func (s AssessmentStatus) CanTransitionTo(next AssessmentStatus) bool {
	for _, n := range assessmentTransitions[s] {
		if n == next {
			return true
		}
	}

	return false
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationDeclined InvitationStatus = "DECLINED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

type EvidenceStatus string

const (
	EvidenceUploading    EvidenceStatus = "UPLOADING"
	EvidenceUploaded     EvidenceStatus = "UPLOADED"
	EvidenceScanPending  EvidenceStatus = "VIRUS_SCAN_PENDING"
	EvidenceScanClean    EvidenceStatus = "VIRUS_SCAN_CLEAN"
	EvidenceScanInfected EvidenceStatus = "VIRUS_SCAN_INFECTED"
	EvidenceVerified     EvidenceStatus = "VERIFIED"
	EvidenceRejected     EvidenceStatus = "REJECTED"
)

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

func (s EvidenceStatus) IsScanResult() bool {
	return s == EvidenceScanClean || s == EvidenceScanInfected
}

type CreditType string

const (
	RespondentCredit CreditType = "RC"
	EvidenceCredit   CreditType = "EC"
)

func (c CreditType) Valid() bool {
	return c == RespondentCredit || c == EvidenceCredit
}

type TransactionType string

const (
	Purchase    TransactionType = "PURCHASE"
	Consumption TransactionType = "CONSUMPTION"
	Refund      TransactionType = "REFUND"
)

func (t TransactionType) Valid() bool {
	return t == Purchase || t == Consumption || t == Refund
}

// Sign returns the multiplier applied to an amount of this type.
func (t TransactionType) Sign() float64 {
	if t == Consumption {
		return -1
	}

	return 1
}
