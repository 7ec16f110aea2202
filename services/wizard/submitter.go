package wizard

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"healthtrip/models"
	"healthtrip/services/reservation"
)

// Submitter performs the final, authoritative conflict re-check and commit.
// The ordering is fixed: re-check first, creation call only on a clean
// answer. The advisory ConflictRecord built up during the session plays no
// part here.
type Submitter struct {
	Availability AvailabilityChecker
	Reservations ReservationAPI
	Logger       *zap.Logger
}

func NewSubmitter(availability AvailabilityChecker, reservations ReservationAPI, logger *zap.Logger) *Submitter {
	return &Submitter{Availability: availability, Reservations: reservations, Logger: logger}
}

// Submit re-checks the exact (doctor, hospital, date, time) tuple of the
// draft and commits it. On success the store is cleared; on any failure the
// draft is left intact so the user can correct and retry.
func (s *Submitter) Submit(ctx context.Context, store *SelectionStore) (*models.ReservationReceipt, error) {
	draft := store.Draft()
	t := draft.Treatment

	result, err := s.Availability.CheckConflict(ctx, t.DoctorID, t.HospitalID, t.AppointmentDate, t.AppointmentTime)
	if err != nil {
		// Unknown is not "no conflict": refuse to proceed.
		return nil, &TransportError{Op: "availability re-check", Err: err}
	}
	if result.HasConflict {
		s.declineSlot(store, t.AppointmentDate)
		return nil, &ConflictError{Date: t.AppointmentDate, Time: t.AppointmentTime}
	}

	receipt, err := s.Reservations.Create(ctx, buildRequest(draft), draft.IdempotencyKey)
	if err != nil {
		// The creation endpoint's atomic check-and-insert may still lose the
		// race; that answer is treated exactly like the pre-check conflict.
		var declined *reservation.ConflictDeclined
		if errors.As(err, &declined) {
			s.declineSlot(store, t.AppointmentDate)
			return nil, &ConflictError{Date: declined.Date, Time: declined.Time}
		}
		// Not confirmed committed: keep the draft, let the user retry with
		// the same idempotency key.
		return nil, &SubmissionError{Err: err}
	}

	if s.Logger != nil {
		s.Logger.Info("reservation submitted",
			zap.String("reservationID", receipt.ReservationID),
			zap.String("appointmentDate", t.AppointmentDate),
			zap.String("appointmentTime", t.AppointmentTime))
	}
	store.Reset()
	return receipt, nil
}

// declineSlot flags the date in the advisory cache and clears the draft's
// date/time so the user is sent back to pick another slot. Everything else
// in the draft is retained.
func (s *Submitter) declineSlot(store *SelectionStore, date string) {
	store.RecordConflictProbe(date, &models.ConflictResult{HasConflict: true})
	store.ClearAppointment()
}

func buildRequest(d models.ReservationDraft) models.ReservationRequest {
	return models.ReservationRequest{
		HospitalID:         d.Treatment.HospitalID,
		DoctorID:           d.Treatment.DoctorID,
		PackageID:          d.Treatment.PackageID,
		TreatmentType:      d.Treatment.TreatmentType,
		AppointmentDate:    d.Treatment.AppointmentDate,
		AppointmentTime:    d.Treatment.AppointmentTime,
		AccommodationID:    d.Logistics.AccommodationID,
		FlightID:           d.Logistics.FlightID,
		TransferID:         d.Logistics.TransferID,
		CheckInDate:        d.Logistics.CheckInDate,
		CheckOutDate:       d.Logistics.CheckOutDate,
		VisaService:        d.AddOns.Visa,
		TranslationService: d.AddOns.Translation,
		InsuranceService:   d.AddOns.Insurance,
		Notes:              d.Notes,
		TotalPrice:         d.Price.Total,
	}
}
