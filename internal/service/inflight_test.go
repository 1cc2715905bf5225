package service

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/pkg/errors"
)

func TestInflightTracker(t *testing.T) {
	tracker := newInflightTracker()
	require.Equal(t, domain.MutationStateIdle, tracker.State("a"))

	require.NoError(t, tracker.Begin("a"))
	require.Equal(t, domain.MutationStatePending, tracker.State("a"))

	var inflight *errors.ErrAlreadyInFlight
	require.True(t, stderrors.As(tracker.Begin("a"), &inflight))
	require.NoError(t, tracker.Begin("b"))

	require.NoError(t, tracker.Finish("a", true))
	require.Equal(t, domain.MutationStateReconciled, tracker.State("a"))
	require.NoError(t, tracker.Finish("b", false))
	require.Equal(t, domain.MutationStateFailed, tracker.State("b"))

	var transition *errors.ErrInvalidStateTransition
	require.True(t, stderrors.As(tracker.Finish("a", true), &transition))

	require.NoError(t, tracker.Begin("a"))
	tracker.Forget("a")
	require.Equal(t, domain.MutationStateIdle, tracker.State("a"))
}
