package events

import (
	"sync"
	"time"
)

const (
	AssessmentCreated     = "assessment.created"
	AssessmentTransition  = "assessment.transition"
	AssessmentSubmitted   = "assessment.submitted"
	AssessmentScored      = "assessment.scored"
	ScoringFailed         = "assessment.scoring_failed"
	InvitationCreated     = "invitation.created"
	InvitationAccepted    = "invitation.accepted"
	InvitationDeclined    = "invitation.declined"
	InvitationExpired     = "invitation.expired"
	RespondentAdded       = "respondent.added"
	ResponseSaved         = "response.saved"
	EvidenceRecorded      = "evidence.recorded"
	EvidenceStatusChanged = "evidence.status"
)

type Event struct {
	Kind           string    `json:"kind"`
	OrganizationID string    `json:"organization_id,omitempty"`
	AssessmentID   uint      `json:"assessment_id,omitempty"`
	ObjectID       uint      `json:"object_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Time           time.Time `json:"time"`
}

// Bus fans events out to named subscribers. Each handler runs in its own goroutine;
// a handler returning false is unsubscribed.
type Bus[V any] struct {
	callbacks sync.Map
}

func New[V any]() *Bus[V] {
	return &Bus[V]{
		callbacks: sync.Map{},
	}
}

func (b *Bus[V]) Publish(msg V) {
	if b == nil {
		return
	}

	b.callbacks.Range(func(key, value any) bool {
		if fn, ok := value.(func(msg V) bool); ok {
			go func() {
				if !fn(msg) {
					b.callbacks.Delete(key)
				}
			}()
		}

		return true
	})
}

func (b *Bus[V]) Subscribe(name string, fn func(msg V) bool) {
	b.callbacks.Store(name, fn)
}

func (b *Bus[V]) Unsubscribe(name string) bool {
	_, found := b.callbacks.LoadAndDelete(name)

	return found
}

func (b *Bus[V]) Len() int {
	n := 0

	b.callbacks.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// NewEvent stamps an event with the current time.
func NewEvent(kind, org string, assessmentID uint) Event {
	return Event{Kind: kind, OrganizationID: org, AssessmentID: assessmentID, Time: time.Now()}
}
