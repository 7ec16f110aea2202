package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	catalogRepo "healthtrip/database/repository/catalog"
	"healthtrip/models"
	"healthtrip/services/tasks"
)

const reminderLeadTime = 24 * time.Hour

// Session bundles the per-wizard store and state machine. One session, one
// customer, one draft. mu serializes all service operations on the session:
// the store and machine themselves are single-writer and carry no lock.
type Session struct {
	ID      string
	Store   *SelectionStore
	Machine *StateMachine

	mu sync.Mutex
}

// SessionState is the view handed back to the transport layer.
type SessionState struct {
	SessionID string                  `json:"sessionId"`
	State     string                  `json:"state"`
	Step      int                     `json:"step,omitempty"`
	Draft     models.ReservationDraft `json:"draft"`
	Conflicts models.ConflictRecord   `json:"conflicts"`
}

// SelectionInput carries partial field updates from the UI. Nil means "leave
// unchanged"; an explicit empty string clears optional references.
type SelectionInput struct {
	PackageID       *string `json:"packageId,omitempty"`
	HospitalID      *string `json:"hospitalId,omitempty"`
	DoctorID        *string `json:"doctorId,omitempty"`
	TreatmentType   *string `json:"treatmentType,omitempty"`
	AppointmentDate *string `json:"appointmentDate,omitempty"`
	AppointmentTime *string `json:"appointmentTime,omitempty"`
	AccommodationID *string `json:"accommodationId,omitempty"`
	CheckInDate     *string `json:"checkInDate,omitempty"`
	CheckOutDate    *string `json:"checkOutDate,omitempty"`
	FlightID        *string `json:"flightId,omitempty"`
	TransferID      *string `json:"transferId,omitempty"`
	Visa            *bool   `json:"visa,omitempty"`
	Translation     *bool   `json:"translation,omitempty"`
	Insurance       *bool   `json:"insurance,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// SessionService owns the live wizard sessions. Every operation takes the
// target session's lock for its full duration, so overlapping requests for
// the same session ID never interleave on its store or machine.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*Session

	Catalog      catalogRepo.CatalogRepository
	Availability AvailabilityChecker
	Reservations ReservationAPI
	Snapshots    SnapshotStore
	Reminders    *asynq.Client // optional; nil disables reminder scheduling
	Logger       *zap.Logger
}

func NewSessionService(
	catalog catalogRepo.CatalogRepository,
	availability AvailabilityChecker,
	reservations ReservationAPI,
	snapshots SnapshotStore,
	reminders *asynq.Client,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions:     make(map[string]*Session),
		Catalog:      catalog,
		Availability: availability,
		Reservations: reservations,
		Snapshots:    snapshots,
		Reminders:    reminders,
		Logger:       logger,
	}
}

// Open creates a fresh wizard session and persists its initial snapshot.
func (s *SessionService) Open(ctx context.Context) (*SessionState, error) {
	store := NewSelectionStore()
	submitter := NewSubmitter(s.Availability, s.Reservations, s.Logger)
	sess := &Session{
		ID:      uuid.New().String(),
		Store:   store,
		Machine: NewStateMachine(store, submitter),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.persist(ctx, sess)
	s.Logger.Info("wizard session opened", zap.String("sessionID", sess.ID))
	return s.stateOf(sess), nil
}

// Get returns the session, resuming it from its persisted snapshot when the
// process no longer holds it in memory. A corrupt or version-mismatched
// snapshot resumes as an empty draft rather than failing.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.stateOf(sess), nil
}

func (s *SessionService) lookup(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	// Not in memory: try the durable snapshot.
	if _, err := s.Snapshots.Load(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("wizard session not found or expired: %s", sessionID)
	}
	store := NewSelectionStore()
	if !RestorePersistedSnapshot(ctx, store, s.Snapshots, sessionID) {
		s.Logger.Warn("snapshot restore failed, resuming with empty draft",
			zap.String("sessionID", sessionID))
	}
	sess = &Session{
		ID:      sessionID,
		Store:   store,
		Machine: NewStateMachine(store, NewSubmitter(s.Availability, s.Reservations, s.Logger)),
	}
	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()
	return sess, nil
}

// UpdateSelection applies partial field updates, resolving catalog ids into
// priced options. Unknown ids are reported, but the store itself never
// rejects a value: validity surfaces through the step predicates.
func (s *SessionService) UpdateSelection(ctx context.Context, sessionID string, in SelectionInput) (*SessionState, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	store := sess.Store

	if in.PackageID != nil {
		if *in.PackageID == "" {
			store.SetPackage(nil)
		} else {
			pkg, err := s.Catalog.GetPackage(ctx, *in.PackageID)
			if err != nil {
				return nil, &UnknownOptionError{Field: "packageId", ID: *in.PackageID, Err: err}
			}
			store.SetPackage(pkg)
		}
	}
	if in.HospitalID != nil || in.DoctorID != nil {
		d := store.Draft().Treatment
		hospitalID, doctorID := d.HospitalID, d.DoctorID
		if in.HospitalID != nil {
			hospitalID = *in.HospitalID
		}
		if in.DoctorID != nil {
			doctorID = *in.DoctorID
		}
		store.SetHospitalDoctor(hospitalID, doctorID)
	}
	if in.TreatmentType != nil {
		store.SetTreatmentType(*in.TreatmentType)
	}
	if in.AppointmentDate != nil || in.AppointmentTime != nil {
		d := store.Draft().Treatment
		date, timeOfDay := d.AppointmentDate, d.AppointmentTime
		if in.AppointmentDate != nil {
			date = *in.AppointmentDate
		}
		if in.AppointmentTime != nil {
			timeOfDay = *in.AppointmentTime
		}
		store.SetAppointment(date, timeOfDay)
		s.probeConflict(ctx, store, date, timeOfDay)
	}
	if in.AccommodationID != nil {
		if *in.AccommodationID == "" {
			store.SetAccommodation(nil)
		} else {
			acc, err := s.Catalog.GetAccommodation(ctx, *in.AccommodationID)
			if err != nil {
				return nil, &UnknownOptionError{Field: "accommodationId", ID: *in.AccommodationID, Err: err}
			}
			store.SetAccommodation(acc)
		}
	}
	if in.CheckInDate != nil || in.CheckOutDate != nil {
		d := store.Draft().Logistics
		checkIn, checkOut := d.CheckInDate, d.CheckOutDate
		if in.CheckInDate != nil {
			checkIn = *in.CheckInDate
		}
		if in.CheckOutDate != nil {
			checkOut = *in.CheckOutDate
		}
		store.SetStayDates(checkIn, checkOut)
	}
	if in.FlightID != nil {
		if *in.FlightID == "" {
			store.SetFlight(nil)
		} else {
			fl, err := s.Catalog.GetFlight(ctx, *in.FlightID)
			if err != nil {
				return nil, &UnknownOptionError{Field: "flightId", ID: *in.FlightID, Err: err}
			}
			store.SetFlight(fl)
		}
	}
	if in.TransferID != nil {
		if *in.TransferID == "" {
			store.SetTransfer(nil)
		} else {
			tr, err := s.Catalog.GetTransfer(ctx, *in.TransferID)
			if err != nil {
				return nil, &UnknownOptionError{Field: "transferId", ID: *in.TransferID, Err: err}
			}
			store.SetTransfer(tr)
		}
	}
	if in.Visa != nil {
		store.SetVisa(*in.Visa)
	}
	if in.Translation != nil {
		store.SetTranslation(*in.Translation)
	}
	if in.Insurance != nil {
		store.SetInsurance(*in.Insurance)
	}
	if in.Notes != nil {
		store.SetNotes(*in.Notes)
	}

	s.persist(ctx, sess)
	return s.stateOf(sess), nil
}

// probeConflict runs the advisory availability check for a freshly selected
// date. A failed probe leaves the cache untouched: unknown, not clear.
func (s *SessionService) probeConflict(ctx context.Context, store *SelectionStore, date, timeOfDay string) {
	if date == "" {
		return
	}
	d := store.Draft().Treatment
	result, err := s.Availability.CheckConflict(ctx, d.DoctorID, d.HospitalID, date, timeOfDay)
	if err != nil {
		s.Logger.Warn("advisory conflict probe failed", zap.String("date", date), zap.Error(err))
		store.RecordConflictProbe(date, nil)
		return
	}
	store.RecordConflictProbe(date, result)
}

// Slots lists the presented slots for one day. The selection version taken
// before the network call guards against a late response for a superseded
// date overwriting newer state.
func (s *SessionService) Slots(ctx context.Context, sessionID, date string) ([]models.SlotInfo, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	d := sess.Store.Draft().Treatment
	version := sess.Store.Version()

	slots, err := s.Availability.ListAvailableSlots(ctx, d.DoctorID, d.HospitalID, date)
	if err != nil {
		return nil, &TransportError{Op: "list available slots", Err: err}
	}
	if !sess.Store.ApplySlots(version, date, slots) {
		s.Logger.Debug("dropping stale slot listing",
			zap.String("sessionID", sessionID), zap.String("date", date))
	}
	return slots, nil
}

// Next advances the wizard one step.
func (s *SessionService) Next(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.Machine.Next(); err != nil {
		return nil, err
	}
	s.persist(ctx, sess)
	return s.stateOf(sess), nil
}

// Back returns the wizard one step without clearing selections.
func (s *SessionService) Back(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.Machine.Back(); err != nil {
		return nil, err
	}
	return s.stateOf(sess), nil
}

// Submit runs the authoritative re-check and commit. On success the session
// is finished: its snapshot is removed and a reminder is scheduled.
func (s *SessionService) Submit(ctx context.Context, sessionID string) (*models.ReservationReceipt, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	draft := sess.Store.Draft()

	receipt, err := sess.Machine.Submit(ctx)
	if err != nil {
		// Conflict handling may have cleared the date/time; keep the
		// snapshot in step with the surviving draft.
		s.persist(ctx, sess)
		return nil, err
	}

	if err := s.Snapshots.Delete(ctx, sessionID); err != nil {
		s.Logger.Warn("failed to delete snapshot after commit",
			zap.String("sessionID", sessionID), zap.Error(err))
	}
	s.scheduleReminder(receipt, draft)

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return receipt, nil
}

// Cancel discards the session and its snapshot.
func (s *SessionService) Cancel(ctx context.Context, sessionID string) error {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.Machine.Cancel(); err != nil {
		return err
	}
	if err := s.Snapshots.Delete(ctx, sessionID); err != nil {
		s.Logger.Warn("failed to delete snapshot on cancel",
			zap.String("sessionID", sessionID), zap.Error(err))
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	s.Logger.Info("wizard session cancelled", zap.String("sessionID", sessionID))
	return nil
}

func (s *SessionService) scheduleReminder(receipt *models.ReservationReceipt, draft models.ReservationDraft) {
	if s.Reminders == nil {
		return
	}
	appointment, err := time.Parse("2006-01-02 15:04",
		draft.Treatment.AppointmentDate+" "+draft.Treatment.AppointmentTime)
	if err != nil {
		s.Logger.Warn("cannot schedule reminder: unparseable appointment",
			zap.String("reservationID", receipt.ReservationID), zap.Error(err))
		return
	}
	fireAt := appointment.Add(-reminderLeadTime)
	if fireAt.Before(time.Now()) {
		return
	}

	task, opts, err := tasks.NewAppointmentReminderTask(models.ReminderPayload{
		ReservationID:     receipt.ReservationID,
		ReservationNumber: receipt.ReservationNumber,
		AppointmentDate:   draft.Treatment.AppointmentDate,
		AppointmentTime:   draft.Treatment.AppointmentTime,
	}, fireAt)
	if err != nil {
		s.Logger.Warn("failed to build reminder task", zap.Error(err))
		return
	}
	if _, err := s.Reminders.Enqueue(task, opts...); err != nil {
		s.Logger.Warn("failed to enqueue reminder task",
			zap.String("reservationID", receipt.ReservationID), zap.Error(err))
	}
}

func (s *SessionService) persist(ctx context.Context, sess *Session) {
	if err := PersistSnapshot(ctx, sess.Store, s.Snapshots, sess.ID); err != nil {
		s.Logger.Warn("failed to persist draft snapshot",
			zap.String("sessionID", sess.ID), zap.Error(err))
	}
}

func (s *SessionService) stateOf(sess *Session) *SessionState {
	return &SessionState{
		SessionID: sess.ID,
		State:     sess.Machine.State().String(),
		Step:      sess.Machine.CurrentStep(),
		Draft:     sess.Store.Draft(),
		Conflicts: sess.Store.ConflictRecord(),
	}
}
