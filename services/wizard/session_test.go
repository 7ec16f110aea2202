package wizard

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtrip/models"
)

// fakeCatalog resolves ids from fixed maps.
type fakeCatalog struct {
	packages       map[string]*models.TreatmentPackage
	accommodations map[string]*models.AccommodationOption
	flights        map[string]*models.FlightOption
	transfers      map[string]*models.TransferOption
}

func (f *fakeCatalog) GetPackage(ctx context.Context, id string) (*models.TreatmentPackage, error) {
	if p, ok := f.packages[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("treatment package not found: %s", id)
}

func (f *fakeCatalog) GetAccommodation(ctx context.Context, id string) (*models.AccommodationOption, error) {
	if a, ok := f.accommodations[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("accommodation not found: %s", id)
}

func (f *fakeCatalog) GetFlight(ctx context.Context, id string) (*models.FlightOption, error) {
	if fl, ok := f.flights[id]; ok {
		return fl, nil
	}
	return nil, fmt.Errorf("flight not found: %s", id)
}

func (f *fakeCatalog) GetTransfer(ctx context.Context, id string) (*models.TransferOption, error) {
	if tr, ok := f.transfers[id]; ok {
		return tr, nil
	}
	return nil, fmt.Errorf("transfer not found: %s", id)
}

func newTestService(avail *fakeAvailability, api *fakeReservationAPI) *SessionService {
	catalog := &fakeCatalog{
		packages: map[string]*models.TreatmentPackage{
			"pkg-1": {ID: "pkg-1", TreatmentType: "dental", Price: 900},
		},
		accommodations: map[string]*models.AccommodationOption{
			"acc-1": {ID: "acc-1", PricePerNight: 100},
		},
		flights: map[string]*models.FlightOption{
			"fl-1": {ID: "fl-1", Price: 250},
		},
		transfers: map[string]*models.TransferOption{
			"tr-1": {ID: "tr-1", Price: 40},
		},
	}
	return NewSessionService(catalog, avail, api, newMemorySnapshotStore(), nil, zap.NewNop())
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func fillSession(t *testing.T, svc *SessionService, sessionID string) {
	t.Helper()
	_, err := svc.UpdateSelection(context.Background(), sessionID, SelectionInput{
		HospitalID:      strPtr("hosp-1"),
		DoctorID:        strPtr("doc-1"),
		TreatmentType:   strPtr("cardiology"),
		AppointmentDate: strPtr("2024-05-20"),
		AppointmentTime: strPtr("10:00"),
		AccommodationID: strPtr("acc-1"),
		CheckInDate:     strPtr("2024-05-19"),
		CheckOutDate:    strPtr("2024-05-22"),
	})
	require.NoError(t, err)
}

func TestSession_SelectionResolvesCatalogPrices(t *testing.T) {
	svc := newTestService(&fakeAvailability{}, &fakeReservationAPI{})
	state, err := svc.Open(context.Background())
	require.NoError(t, err)

	state, err = svc.UpdateSelection(context.Background(), state.SessionID, SelectionInput{
		PackageID:       strPtr("pkg-1"),
		AccommodationID: strPtr("acc-1"),
		CheckInDate:     strPtr("2024-05-19"),
		CheckOutDate:    strPtr("2024-05-21"),
		FlightID:        strPtr("fl-1"),
		Visa:            boolPtr(true),
	})
	require.NoError(t, err)

	// 900 package + 200 accommodation + 250 flight + 150 visa.
	assert.Equal(t, 1500.0, state.Draft.Price.Total)
	assert.Equal(t, "dental", state.Draft.Treatment.TreatmentType)

	// Clearing the flight with an explicit empty id drops its charge.
	state, err = svc.UpdateSelection(context.Background(), state.SessionID, SelectionInput{
		FlightID: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, 1250.0, state.Draft.Price.Total)
}

func TestSession_UnknownCatalogID(t *testing.T) {
	svc := newTestService(&fakeAvailability{}, &fakeReservationAPI{})
	state, err := svc.Open(context.Background())
	require.NoError(t, err)

	_, err = svc.UpdateSelection(context.Background(), state.SessionID, SelectionInput{
		AccommodationID: strPtr("acc-missing"),
	})
	var unknown *UnknownOptionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "accommodationId", unknown.Field)
	assert.Equal(t, "acc-missing", unknown.ID)

	// The bad id never lands in the draft.
	current, err := svc.Get(context.Background(), state.SessionID)
	require.NoError(t, err)
	assert.Empty(t, current.Draft.Logistics.AccommodationID)
}

func TestSession_ConcurrentUpdatesAndReads(t *testing.T) {
	svc := newTestService(&fakeAvailability{}, &fakeReservationAPI{})
	state, err := svc.Open(context.Background())
	require.NoError(t, err)
	sessionID := state.SessionID

	// Overlapping requests for one session: mutations and reads must
	// serialize on the session, never interleave on its store.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		note := fmt.Sprintf("note %d", i)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateSelection(context.Background(), sessionID, SelectionInput{
				Notes: strPtr(note),
				Visa:  boolPtr(true),
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			st, err := svc.Get(context.Background(), sessionID)
			assert.NoError(t, err)
			// Visa either not applied yet or priced in; never a torn state.
			if st.Draft.AddOns.Visa {
				assert.Equal(t, VisaFee, st.Draft.Price.Total)
			} else {
				assert.Equal(t, 0.0, st.Draft.Price.Total)
			}
		}()
	}
	wg.Wait()

	final, err := svc.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.True(t, final.Draft.AddOns.Visa)
	assert.Equal(t, VisaFee, final.Draft.Price.Total)
}

func TestSession_AdvisoryProbeOnDateSelection(t *testing.T) {
	avail := &fakeAvailability{conflict: true}
	svc := newTestService(avail, &fakeReservationAPI{})
	state, err := svc.Open(context.Background())
	require.NoError(t, err)

	state, err = svc.UpdateSelection(context.Background(), state.SessionID, SelectionInput{
		DoctorID:        strPtr("doc-1"),
		HospitalID:      strPtr("hosp-1"),
		AppointmentDate: strPtr("2024-05-20"),
		AppointmentTime: strPtr("10:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, avail.checkCalls)
	assert.True(t, state.Conflicts.Dates["2024-05-20"])
}

func TestSession_SlotsDroppedWhenDateSuperseded(t *testing.T) {
	avail := &fakeAvailability{slots: []models.SlotInfo{{Time: "09:00", Available: true}}}
	svc := newTestService(avail, &fakeReservationAPI{})
	state, err := svc.Open(context.Background())
	require.NoError(t, err)
	fillSession(t, svc, state.SessionID)

	sess, err := svc.lookup(context.Background(), state.SessionID)
	require.NoError(t, err)

	// A response tagged with yesterday's version never lands.
	stale := sess.Store.Version() - 1
	assert.False(t, sess.Store.ApplySlots(stale, "2024-05-19", avail.slots))

	slots, err := svc.Slots(context.Background(), state.SessionID, "2024-05-20")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	date, cached := sess.Store.Slots()
	assert.Equal(t, "2024-05-20", date)
	assert.Len(t, cached, 1)
}

func TestSession_ResumeFromSnapshot(t *testing.T) {
	svc := newTestService(&fakeAvailability{}, &fakeReservationAPI{})
	state, err := svc.Open(context.Background())
	require.NoError(t, err)
	fillSession(t, svc, state.SessionID)

	// Simulate a process restart: the in-memory session is gone, the
	// snapshot is not.
	svc.mu.Lock()
	delete(svc.sessions, state.SessionID)
	svc.mu.Unlock()

	resumed, err := svc.Get(context.Background(), state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "hosp-1", resumed.Draft.Treatment.HospitalID)
	assert.Equal(t, 300.0, resumed.Draft.Price.Total)
}

func TestSession_UnknownSessionID(t *testing.T) {
	svc := newTestService(&fakeAvailability{}, &fakeReservationAPI{})
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestSession_SubmitRemovesSessionAndSnapshot(t *testing.T) {
	api := &fakeReservationAPI{receipt: &models.ReservationReceipt{ReservationID: "res-1"}}
	svc := newTestService(&fakeAvailability{}, api)
	state, err := svc.Open(context.Background())
	require.NoError(t, err)
	fillSession(t, svc, state.SessionID)

	_, err = svc.Next(context.Background(), state.SessionID)
	require.NoError(t, err)
	_, err = svc.Next(context.Background(), state.SessionID)
	require.NoError(t, err)

	receipt, err := svc.Submit(context.Background(), state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "res-1", receipt.ReservationID)

	// The finished session is unknown afterwards.
	_, err = svc.Get(context.Background(), state.SessionID)
	assert.Error(t, err)
}

func TestSession_CancelDiscardsEverything(t *testing.T) {
	svc := newTestService(&fakeAvailability{}, &fakeReservationAPI{})
	state, err := svc.Open(context.Background())
	require.NoError(t, err)
	fillSession(t, svc, state.SessionID)

	require.NoError(t, svc.Cancel(context.Background(), state.SessionID))
	_, err = svc.Get(context.Background(), state.SessionID)
	assert.Error(t, err)
}
