package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtrip/models"
	"healthtrip/services/reservation"
)

// fakeAvailability scripts the scheduling authority's answers.
type fakeAvailability struct {
	conflict    bool
	checkErr    error
	slots       []models.SlotInfo
	listErr     error
	checkCalls  int
	lastProbeAt string
}

func (f *fakeAvailability) CheckConflict(ctx context.Context, doctorID, hospitalID, date, timeOfDay string) (*models.ConflictResult, error) {
	f.checkCalls++
	f.lastProbeAt = date + " " + timeOfDay
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return &models.ConflictResult{HasConflict: f.conflict}, nil
}

func (f *fakeAvailability) ListAvailableSlots(ctx context.Context, doctorID, hospitalID, date string) ([]models.SlotInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.slots, nil
}

// fakeReservationAPI records creation calls.
type fakeReservationAPI struct {
	receipt     *models.ReservationReceipt
	err         error
	createCalls int
	lastKey     string
	lastReq     models.ReservationRequest
}

func (f *fakeReservationAPI) Create(ctx context.Context, req models.ReservationRequest, idempotencyKey string) (*models.ReservationReceipt, error) {
	f.createCalls++
	f.lastKey = idempotencyKey
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

func TestSubmit_ConflictAbortsBeforeCreation(t *testing.T) {
	avail := &fakeAvailability{conflict: true}
	api := &fakeReservationAPI{}
	sub := NewSubmitter(avail, api, zap.NewNop())
	store := filledStore()

	_, err := sub.Submit(context.Background(), store)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "2024-05-20", conflict.Date)
	assert.Equal(t, "10:00", conflict.Time)

	// The creation endpoint is never contacted on a reported conflict,
	// regardless of what any earlier advisory probe said.
	assert.Equal(t, 0, api.createCalls)

	// Date/time are cleared, the rest of the draft survives.
	d := store.Draft()
	assert.Empty(t, d.Treatment.AppointmentDate)
	assert.Equal(t, "hosp-1", d.Treatment.HospitalID)
	assert.Equal(t, "acc-1", d.Logistics.AccommodationID)
	assert.True(t, store.HasKnownConflict("2024-05-20"))
}

func TestSubmit_RecheckFailureIsTransportNotClean(t *testing.T) {
	avail := &fakeAvailability{checkErr: errors.New("dial tcp: connection refused")}
	api := &fakeReservationAPI{}
	sub := NewSubmitter(avail, api, zap.NewNop())
	store := filledStore()

	_, err := sub.Submit(context.Background(), store)
	var transport *TransportError
	require.ErrorAs(t, err, &transport)

	// An unreachable authority is unknown, never "no conflict".
	assert.Equal(t, 0, api.createCalls)
	assert.Equal(t, "2024-05-20", store.Draft().Treatment.AppointmentDate)
}

func TestSubmit_Success(t *testing.T) {
	avail := &fakeAvailability{}
	api := &fakeReservationAPI{receipt: &models.ReservationReceipt{
		ReservationID:     "res-1",
		ReservationNumber: "HT-2026-A12B",
	}}
	sub := NewSubmitter(avail, api, zap.NewNop())
	store := filledStore()
	store.SetVisa(true)
	key := store.Draft().IdempotencyKey

	receipt, err := sub.Submit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, "res-1", receipt.ReservationID)
	assert.Equal(t, "HT-2026-A12B", receipt.ReservationNumber)

	// The re-check targeted the exact draft tuple.
	assert.Equal(t, "2024-05-20 10:00", avail.lastProbeAt)
	assert.Equal(t, key, api.lastKey)

	// The payload carries the full draft, total included.
	assert.Equal(t, "hosp-1", api.lastReq.HospitalID)
	assert.True(t, api.lastReq.VisaService)
	assert.Equal(t, 450.0, api.lastReq.TotalPrice)

	// On confirmed success the store is cleared.
	assert.Empty(t, store.Draft().Treatment.HospitalID)
}

func TestSubmit_LateConflictFromCreation(t *testing.T) {
	// The race was lost between re-check and insert: the endpoint's
	// structured conflict is treated exactly like the pre-check conflict.
	avail := &fakeAvailability{}
	api := &fakeReservationAPI{err: &reservation.ConflictDeclined{Date: "2024-05-20", Time: "10:00"}}
	sub := NewSubmitter(avail, api, zap.NewNop())
	store := filledStore()

	_, err := sub.Submit(context.Background(), store)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "2024-05-20", conflict.Date)
	assert.Empty(t, store.Draft().Treatment.AppointmentDate)
	assert.Equal(t, "hosp-1", store.Draft().Treatment.HospitalID)
}

func TestSubmit_TransportDuringCreationIsSubmissionError(t *testing.T) {
	avail := &fakeAvailability{}
	api := &fakeReservationAPI{err: errors.New("unexpected EOF")}
	sub := NewSubmitter(avail, api, zap.NewNop())
	store := filledStore()
	key := store.Draft().IdempotencyKey

	_, err := sub.Submit(context.Background(), store)
	var submission *SubmissionError
	require.ErrorAs(t, err, &submission)

	// Not confirmed committed: the draft survives untouched and the next
	// attempt reuses the same idempotency key.
	d := store.Draft()
	assert.Equal(t, "2024-05-20", d.Treatment.AppointmentDate)
	assert.Equal(t, key, d.IdempotencyKey)

	api.err = nil
	api.receipt = &models.ReservationReceipt{ReservationID: "res-2"}
	_, err = sub.Submit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, key, api.lastKey)
}
