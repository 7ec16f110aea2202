package wizard

import (
	"context"

	"healthtrip/models"
)

// State is a wizard session's position in the booking flow.
type State int

const (
	StateStep1 State = iota + 1
	StateStep2
	StateStep3
	StateSubmitting
	StateCommitted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateStep1:
		return "STEP_1"
	case StateStep2:
		return "STEP_2"
	case StateStep3:
		return "STEP_3"
	case StateSubmitting:
		return "SUBMITTING"
	case StateCommitted:
		return "COMMITTED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// validTransitions is the explicit transition table. Committed and Cancelled
// are terminal; Failed permits another submit attempt.
var validTransitions = map[State][]State{
	StateStep1:      {StateStep2, StateCancelled},
	StateStep2:      {StateStep1, StateStep3, StateCancelled},
	StateStep3:      {StateStep2, StateSubmitting, StateCancelled},
	StateSubmitting: {StateCommitted, StateFailed},
	StateFailed:     {StateSubmitting, StateCancelled},
}

func canTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// draftSubmitter performs the authoritative re-check and commit.
type draftSubmitter interface {
	Submit(ctx context.Context, store *SelectionStore) (*models.ReservationReceipt, error)
}

// StateMachine sequences the wizard steps and gates forward progress on the
// store's validity predicates. It is UI-independent: callers feed it events
// and read the resulting state.
type StateMachine struct {
	state     State
	store     *SelectionStore
	submitter draftSubmitter
}

func NewStateMachine(store *SelectionStore, submitter draftSubmitter) *StateMachine {
	return &StateMachine{state: StateStep1, store: store, submitter: submitter}
}

func (m *StateMachine) State() State {
	return m.state
}

// CurrentStep maps the state to a step index; 0 outside the editing steps.
func (m *StateMachine) CurrentStep() int {
	switch m.state {
	case StateStep1:
		return StepTreatment
	case StateStep2:
		return StepLogistics
	case StateStep3:
		return StepConfirmation
	}
	return 0
}

// Next advances to the following step if the current step's gate passes.
// A gate failure leaves the state untouched and returns a ValidationError.
func (m *StateMachine) Next() error {
	step := m.CurrentStep()
	if step == 0 || step == StepConfirmation {
		return &InvalidTransitionError{From: m.state, Op: "advance"}
	}
	if field := m.store.MissingField(step); field != "" {
		return NewValidationError(step, field)
	}
	m.state++
	return nil
}

// Back returns to the previous step without clearing any selection, so a
// revisited step shows the prior choices.
func (m *StateMachine) Back() error {
	if m.state != StateStep2 && m.state != StateStep3 {
		return &InvalidTransitionError{From: m.state, Op: "go back"}
	}
	m.state--
	return nil
}

// Submit runs the final re-check and commit. Allowed from the confirmation
// step, or from Failed for a retry; both require steps 1 and 2 to be valid.
// On success the session ends in Committed; any failure lands in Failed with
// the typed error returned for the caller to act on.
func (m *StateMachine) Submit(ctx context.Context) (*models.ReservationReceipt, error) {
	if !canTransition(m.state, StateSubmitting) {
		return nil, &InvalidTransitionError{From: m.state, Op: "submit"}
	}
	for _, step := range []int{StepTreatment, StepLogistics} {
		if field := m.store.MissingField(step); field != "" {
			return nil, NewValidationError(step, field)
		}
	}

	m.state = StateSubmitting
	receipt, err := m.submitter.Submit(ctx, m.store)
	if err != nil {
		m.state = StateFailed
		return nil, err
	}
	m.state = StateCommitted
	return receipt, nil
}

// Cancel ends the session from any non-terminal state and resets the store.
func (m *StateMachine) Cancel() error {
	if m.state == StateCommitted || m.state == StateCancelled {
		return &InvalidTransitionError{From: m.state, Op: "cancel"}
	}
	m.state = StateCancelled
	m.store.Reset()
	return nil
}
