package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssessmentTransitions(t *testing.T) {
	for _, d := range []struct {
		from, to AssessmentStatus
		ok       bool
	}{
		{StatusDraft, StatusInProgress, true},
		{StatusDraft, StatusSubmitted, true},
		{StatusInProgress, StatusSubmitted, true},
		{StatusSubmitted, StatusAnalystReview, true},
		{StatusAnalystReview, StatusCompleted, true},
		{StatusAnalystReview, StatusRejected, true},
		{StatusSubmitted, StatusSubmitted, false},
		{StatusDraft, StatusAnalystReview, false},
		{StatusInProgress, StatusDraft, false},
		{StatusSubmitted, StatusDraft, false},
		{StatusCompleted, StatusAnalystReview, false},
		{StatusRejected, StatusDraft, false},
	} {
		t.Run(string(d.from)+"_"+string(d.to), func(t *testing.T) {
			require.Equal(t, d.ok, d.from.CanTransitionTo(d.to))
		})
	}

	require.True(t, StatusCompleted.IsTerminal())
	require.True(t, StatusRejected.IsTerminal())
	require.False(t, StatusAnalystReview.IsTerminal())
	require.False(t, AssessmentStatus("UNKNOWN").Valid())
}

func TestTransactionSign(t *testing.T) {
	require.Equal(t, -2.0, (&Transaction{Type: Consumption, Amount: 2}).Signed())
	require.Equal(t, 2.0, (&Transaction{Type: Purchase, Amount: 2}).Signed())
	require.Equal(t, 0.5, (&Transaction{Type: Refund, Amount: 0.5}).Signed())
}

func TestDisplayName(t *testing.T) {
	a := &Assessment{ID: 12}
	require.Equal(t, "Assessment #12", a.DisplayName())

	a.Project = &Project{Name: "Vendor review"}
	require.Equal(t, "Vendor review", a.DisplayName())
}
