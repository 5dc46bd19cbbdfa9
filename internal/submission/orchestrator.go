package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/internal/notify"
	"github.com/trustform/assessd/internal/scoring"
	"github.com/trustform/assessd/internal/workflow"
	"github.com/trustform/assessd/pkg/util"
)

// Result is what a submission attempt produced. Assessment is always the current stored state.
type Result struct {
	Assessment   *model.Assessment
	Score        *model.AssessmentScore
	Notification *notify.Outcome
}

// Orchestrator drives an assessment through submission and scoring.
type Orchestrator struct {
	store    *workflow.Store
	scorer   scoring.Client
	notifier notify.Notifier
	bus      *events.Bus[events.Event]
	locks    *util.KeyLock
	logger   *slog.Logger
}

func New(store *workflow.Store, scorer scoring.Client, notifier notify.Notifier, bus *events.Bus[events.Event]) *Orchestrator {
	return &Orchestrator{
		store:    store,
		scorer:   scorer,
		notifier: notifier,
		bus:      bus,
		locks:    util.NewKeyLock(),
		logger:   slog.With("logger", "submission"),
	}
}

// Submit marks the assessment SUBMITTED and scores it. A scoring failure leaves it SUBMITTED
// and is returned together with the result, so the caller can try Rescore later.
func (o *Orchestrator) Submit(ctx context.Context, id uint) (*Result, error) {
	unlock, ok := o.locks.TryLock(lockKey(id))
	if !ok {
		return nil, fault.InvalidStatef("assessment %d is being scored", id)
	}
	defer unlock()

	a, err := o.store.BeginSubmission(id)
	if err != nil {
		return nil, err
	}

	o.logger.Info(fmt.Sprintf("assessment %d submitted", id))

	res, scoreErr := o.score(ctx, a)
	res.Notification = o.notifySubmitted(ctx, a)

	return res, scoreErr
}

// Rescore retries scoring of an assessment left SUBMITTED by a failed attempt.
func (o *Orchestrator) Rescore(ctx context.Context, id uint) (*Result, error) {
	unlock, ok := o.locks.TryLock(lockKey(id))
	if !ok {
		return nil, fault.InvalidStatef("assessment %d is being scored", id)
	}
	defer unlock()

	a, err := o.store.GetAssessment(id)
	if err != nil {
		return nil, err
	}

	if a.Status != model.StatusSubmitted {
		return nil, fault.InvalidStatef("assessment %d is %s, only %s can be rescored", id, a.Status, model.StatusSubmitted)
	}

	return o.score(ctx, a)
}

// Scores returns the stored score; NotFound until scoring succeeded once.
func (o *Orchestrator) Scores(id uint) (*model.AssessmentScore, error) {
	if _, err := o.store.GetAssessment(id); err != nil {
		return nil, err
	}

	return o.store.GetScore(id)
}

// score never holds a database transaction while waiting for the engine.
func (o *Orchestrator) score(ctx context.Context, a *model.Assessment) (*Result, error) {
	res := &Result{Assessment: a}

	payload, err := o.store.SubmissionPayload(a.ID)
	if err != nil {
		return res, err
	}

	result, err := o.scorer.Score(ctx, payload)
	if err != nil {
		if !errors.Is(err, fault.DependencyFailure) {
			err = fmt.Errorf("%w: %w", fault.DependencyFailure, err)
		}

		o.logger.Error(fmt.Sprintf("scoring failed for assessment %d, it stays %s", a.ID, a.Status), slog.Any("error", err))

		ev := events.NewEvent(events.ScoringFailed, a.OrganizationID, a.ID)
		ev.Status = string(a.Status)
		o.bus.Publish(ev)

		return res, err
	}

	sc, err := o.store.SaveScore(a.ID, result)
	if err != nil {
		return res, err
	}

	res.Score = sc

	if fresh, err := o.store.GetAssessment(a.ID); err == nil {
		res.Assessment = fresh
	}

	return res, nil
}

// notifySubmitted tells the first invited partner contact that the submission was received.
func (o *Orchestrator) notifySubmitted(ctx context.Context, a *model.Assessment) *notify.Outcome {
	if a.PartnerOrgName == "" {
		return nil
	}

	inv, err := o.store.FirstInvitation(a.ID)
	if err != nil {
		o.logger.Warn(fmt.Sprintf("cannot load invitation of assessment %d", a.ID), slog.Any("error", err))
		return nil
	}

	if inv == nil {
		return nil
	}

	out := notify.Deliver(ctx, o.notifier, notify.AssessmentSubmitted, notify.Payload{
		To:             inv.PartnerEmail,
		PartnerOrgName: a.PartnerOrgName,
		AssessmentID:   a.ID,
		AssessmentName: a.DisplayName(),
	}, o.logger)

	return &out
}

func lockKey(id uint) string {
	return fmt.Sprintf("assessment/%d", id)
}
