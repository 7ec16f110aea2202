package wizard

import (
	"context"

	"healthtrip/models"
)

// AvailabilityChecker asks the external scheduling authority about slots and
// conflicts. Implementations must surface transport failures as errors; a
// failure is never an answer.
type AvailabilityChecker interface {
	ListAvailableSlots(ctx context.Context, doctorID, hospitalID, date string) ([]models.SlotInfo, error)
	CheckConflict(ctx context.Context, doctorID, hospitalID, date, timeOfDay string) (*models.ConflictResult, error)
}

// ReservationAPI commits a finished draft at the reservation service. The
// creation endpoint performs its own atomic check-and-insert; a lost race
// comes back as a conflict-typed error.
type ReservationAPI interface {
	Create(ctx context.Context, req models.ReservationRequest, idempotencyKey string) (*models.ReservationReceipt, error)
}

// SnapshotStore persists draft snapshots for resume-after-interruption.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, data []byte) error
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
}
