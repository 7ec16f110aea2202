package wizard

import (
	"github.com/google/uuid"

	"healthtrip/models"
)

// Wizard step indices.
const (
	StepTreatment    = 1
	StepLogistics    = 2
	StepConfirmation = 3
)

// SelectionStore is the single source of truth for one wizard session's
// ReservationDraft. Mutators never fail: invalid values are accepted and
// surfaced only through the validity predicates, so the UI is never blocked
// from exploring half-edited state. One wizard instance means one goroutine
// of access, so the store carries no lock of its own.
type SelectionStore struct {
	draft     models.ReservationDraft
	conflicts models.ConflictRecord

	// version increases on every selection change that supersedes in-flight
	// availability requests. Late responses carrying an older version are
	// dropped instead of overwriting newer state.
	version   uint64
	slots     []models.SlotInfo
	slotsDate string
}

func NewSelectionStore() *SelectionStore {
	s := &SelectionStore{}
	s.resetDraft()
	return s
}

func (s *SelectionStore) resetDraft() {
	s.draft = models.ReservationDraft{IdempotencyKey: uuid.New().String()}
	s.conflicts = models.ConflictRecord{Dates: make(map[string]bool)}
	s.slots = nil
	s.slotsDate = ""
	s.recompute()
}

// Reset restores the draft to empty state; used on wizard close/cancel and on
// failed snapshot restores.
func (s *SelectionStore) Reset() {
	s.version++
	s.resetDraft()
}

// Draft returns a copy of the current draft.
func (s *SelectionStore) Draft() models.ReservationDraft {
	return s.draft
}

func (s *SelectionStore) recompute() {
	s.draft.Price = ComputePrice(s.draft)
}

// SetPackage selects a pre-priced treatment package, clearing any explicit
// hospital/doctor pair. A nil package clears the selection.
func (s *SelectionStore) SetPackage(pkg *models.TreatmentPackage) {
	if pkg == nil {
		s.draft.Treatment.PackageID = ""
		s.draft.Rates.PackagePrice = 0
	} else {
		s.draft.Treatment.PackageID = pkg.ID
		s.draft.Treatment.HospitalID = ""
		s.draft.Treatment.DoctorID = ""
		if pkg.TreatmentType != "" {
			s.draft.Treatment.TreatmentType = pkg.TreatmentType
		}
		s.draft.Rates.PackagePrice = pkg.Price
	}
	s.conflictPairChanged()
	s.recompute()
}

// SetHospitalDoctor selects an explicit hospital+doctor pair, clearing any
// package selection.
func (s *SelectionStore) SetHospitalDoctor(hospitalID, doctorID string) {
	s.draft.Treatment.HospitalID = hospitalID
	s.draft.Treatment.DoctorID = doctorID
	s.draft.Treatment.PackageID = ""
	s.draft.Rates.PackagePrice = 0
	s.conflictPairChanged()
	s.recompute()
}

func (s *SelectionStore) SetTreatmentType(t string) {
	s.draft.Treatment.TreatmentType = t
}

// SetAppointment records the requested date and time. It supersedes any
// in-flight slot listing for the previous date.
func (s *SelectionStore) SetAppointment(date, timeOfDay string) {
	if date != s.draft.Treatment.AppointmentDate {
		s.version++
	}
	s.draft.Treatment.AppointmentDate = date
	s.draft.Treatment.AppointmentTime = timeOfDay
}

// ClearAppointment drops the date/time after a confirmed conflict, keeping
// every other selection intact.
func (s *SelectionStore) ClearAppointment() {
	s.version++
	s.draft.Treatment.AppointmentDate = ""
	s.draft.Treatment.AppointmentTime = ""
}

func (s *SelectionStore) SetAccommodation(a *models.AccommodationOption) {
	if a == nil {
		s.draft.Logistics.AccommodationID = ""
		s.draft.Rates.AccommodationNightly = 0
	} else {
		s.draft.Logistics.AccommodationID = a.ID
		s.draft.Rates.AccommodationNightly = a.PricePerNight
	}
	s.recompute()
}

func (s *SelectionStore) SetStayDates(checkIn, checkOut string) {
	s.draft.Logistics.CheckInDate = checkIn
	s.draft.Logistics.CheckOutDate = checkOut
	s.recompute()
}

func (s *SelectionStore) SetFlight(f *models.FlightOption) {
	if f == nil {
		s.draft.Logistics.FlightID = ""
		s.draft.Rates.FlightPrice = 0
	} else {
		s.draft.Logistics.FlightID = f.ID
		s.draft.Rates.FlightPrice = f.Price
	}
	s.recompute()
}

func (s *SelectionStore) SetTransfer(t *models.TransferOption) {
	if t == nil {
		s.draft.Logistics.TransferID = ""
		s.draft.Rates.TransferPrice = 0
	} else {
		s.draft.Logistics.TransferID = t.ID
		s.draft.Rates.TransferPrice = t.Price
	}
	s.recompute()
}

func (s *SelectionStore) SetVisa(v bool) {
	s.draft.AddOns.Visa = v
	s.recompute()
}

func (s *SelectionStore) SetTranslation(v bool) {
	s.draft.AddOns.Translation = v
	s.recompute()
}

func (s *SelectionStore) SetInsurance(v bool) {
	s.draft.AddOns.Insurance = v
	s.recompute()
}

func (s *SelectionStore) SetNotes(n string) {
	s.draft.Notes = n
}

// IsStepValid reports whether the named step's gate is satisfied by the
// current draft. Pure; callable from anywhere without side effects.
func (s *SelectionStore) IsStepValid(step int) bool {
	return s.MissingField(step) == ""
}

// MissingField returns the first unsatisfied requirement of a step, or ""
// when the step is valid. Step 3 has no requirements: add-ons are optional.
func (s *SelectionStore) MissingField(step int) string {
	d := s.draft
	switch step {
	case StepTreatment:
		hasPackage := d.Treatment.PackageID != ""
		hasPair := d.Treatment.HospitalID != "" && d.Treatment.DoctorID != ""
		if !hasPackage && !hasPair {
			return "package or hospital+doctor"
		}
		if d.Treatment.TreatmentType == "" {
			return "treatmentType"
		}
		if d.Treatment.AppointmentDate == "" {
			return "appointmentDate"
		}
		if d.Treatment.AppointmentTime == "" {
			return "appointmentTime"
		}
	case StepLogistics:
		if d.Logistics.AccommodationID == "" {
			return "accommodationId"
		}
		if d.Logistics.CheckInDate == "" {
			return "checkInDate"
		}
		if d.Logistics.CheckOutDate == "" {
			return "checkOutDate"
		}
		if Nights(d.Logistics.CheckInDate, d.Logistics.CheckOutDate) <= 0 {
			return "checkOutDate after checkInDate"
		}
	}
	return ""
}

// Version returns the current selection version. Callers snapshot it before
// an asynchronous availability request and hand it back with the response.
func (s *SelectionStore) Version() uint64 {
	return s.version
}

// ApplySlots installs a day's slot listing if it still belongs to the current
// selection generation. Stale responses are dropped and false is returned.
func (s *SelectionStore) ApplySlots(version uint64, date string, slots []models.SlotInfo) bool {
	if version != s.version {
		return false
	}
	s.slots = slots
	s.slotsDate = date
	return true
}

// Slots returns the current slot listing and the date it belongs to.
func (s *SelectionStore) Slots() (string, []models.SlotInfo) {
	return s.slotsDate, s.slots
}

func (s *SelectionStore) conflictPairChanged() {
	s.conflicts = models.ConflictRecord{
		DoctorID:   s.draft.Treatment.DoctorID,
		HospitalID: s.draft.Treatment.HospitalID,
		Dates:      make(map[string]bool),
	}
}

// RecordConflictProbe folds an advisory conflict probe into the cache. A nil
// result means the probe itself failed: the date stays unknown and a prior
// conflict flag is never cleared on failure.
func (s *SelectionStore) RecordConflictProbe(date string, result *models.ConflictResult) {
	if result == nil {
		return
	}
	if result.HasConflict {
		s.conflicts.Dates[date] = true
	} else {
		delete(s.conflicts.Dates, date)
	}
}

// HasKnownConflict reports whether the advisory cache has flagged a date.
// UI hinting only; it never gates the final commit.
func (s *SelectionStore) HasKnownConflict(date string) bool {
	return s.conflicts.Dates[date]
}

// ConflictRecord returns a copy of the advisory conflict cache.
func (s *SelectionStore) ConflictRecord() models.ConflictRecord {
	dates := make(map[string]bool, len(s.conflicts.Dates))
	for k, v := range s.conflicts.Dates {
		dates[k] = v
	}
	return models.ConflictRecord{
		DoctorID:   s.conflicts.DoctorID,
		HospitalID: s.conflicts.HospitalID,
		Dates:      dates,
	}
}
