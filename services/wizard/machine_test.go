package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrip/models"
)

// stubSubmitter scripts the submitter outcome for machine tests.
type stubSubmitter struct {
	receipt *models.ReservationReceipt
	err     error
	calls   int
}

func (s *stubSubmitter) Submit(ctx context.Context, store *SelectionStore) (*models.ReservationReceipt, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

func readyMachine(sub draftSubmitter) (*StateMachine, *SelectionStore) {
	store := filledStore()
	return NewStateMachine(store, sub), store
}

func TestNext_GatedOnValidity(t *testing.T) {
	store := NewSelectionStore()
	m := NewStateMachine(store, &stubSubmitter{})

	err := m.Next()
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, StepTreatment, validation.Step)
	// The gate failure never advances the step.
	assert.Equal(t, StateStep1, m.State())
}

func TestNext_AdvancesWhenValid(t *testing.T) {
	m, _ := readyMachine(&stubSubmitter{})

	require.NoError(t, m.Next())
	assert.Equal(t, StateStep2, m.State())
	require.NoError(t, m.Next())
	assert.Equal(t, StateStep3, m.State())

	// No step beyond confirmation.
	err := m.Next()
	var transition *InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestBack_PreservesSelections(t *testing.T) {
	m, store := readyMachine(&stubSubmitter{})
	require.NoError(t, m.Next())

	require.NoError(t, m.Back())
	assert.Equal(t, StateStep1, m.State())
	assert.Equal(t, "hosp-1", store.Draft().Treatment.HospitalID)

	// Back is not allowed from step 1.
	var transition *InvalidTransitionError
	assert.ErrorAs(t, m.Back(), &transition)
}

func TestSubmit_OnlyFromConfirmation(t *testing.T) {
	m, _ := readyMachine(&stubSubmitter{})

	_, err := m.Submit(context.Background())
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, StateStep1, m.State())
}

func TestMachineSubmit_Success(t *testing.T) {
	sub := &stubSubmitter{receipt: &models.ReservationReceipt{ReservationID: "res-1"}}
	m, _ := readyMachine(sub)
	require.NoError(t, m.Next())
	require.NoError(t, m.Next())

	receipt, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "res-1", receipt.ReservationID)
	assert.Equal(t, StateCommitted, m.State())

	// Committed is terminal.
	assert.Error(t, m.Cancel())
	_, err = m.Submit(context.Background())
	assert.Error(t, err)
}

func TestSubmit_FailureAllowsRetry(t *testing.T) {
	sub := &stubSubmitter{err: &SubmissionError{Err: errors.New("connection reset")}}
	m, _ := readyMachine(sub)
	require.NoError(t, m.Next())
	require.NoError(t, m.Next())

	_, err := m.Submit(context.Background())
	var submission *SubmissionError
	require.ErrorAs(t, err, &submission)
	assert.Equal(t, StateFailed, m.State())

	// Retry goes through the submitter again.
	sub.err = nil
	sub.receipt = &models.ReservationReceipt{ReservationID: "res-2"}
	receipt, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "res-2", receipt.ReservationID)
	assert.Equal(t, 2, sub.calls)
}

func TestSubmit_RetryBlockedUntilDraftValidAgain(t *testing.T) {
	sub := &stubSubmitter{err: &ConflictError{Date: "2024-05-20", Time: "10:00"}}
	m, store := readyMachine(sub)
	require.NoError(t, m.Next())
	require.NoError(t, m.Next())

	_, err := m.Submit(context.Background())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, StateFailed, m.State())

	// Simulate what the real submitter does on conflict: the slot is gone.
	store.ClearAppointment()
	_, err = m.Submit(context.Background())
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, StepTreatment, validation.Step)
}

func TestCancel_ResetsStore(t *testing.T) {
	m, store := readyMachine(&stubSubmitter{})
	require.NoError(t, m.Next())

	require.NoError(t, m.Cancel())
	assert.Equal(t, StateCancelled, m.State())
	assert.Empty(t, store.Draft().Treatment.HospitalID)

	// Cancelled is terminal.
	assert.Error(t, m.Cancel())
	assert.Error(t, m.Next())
}
