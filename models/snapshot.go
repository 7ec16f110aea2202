package models

// DraftSnapshotVersion tags persisted snapshots. Restore checks it and
// falls back to an empty draft on mismatch rather than attempting migration.
const DraftSnapshotVersion = 1

// DraftSnapshot is the whitelisted, durable subset of a ReservationDraft.
// Derived values (price breakdown) and transient state (conflict cache,
// selection version) are deliberately excluded.
type DraftSnapshot struct {
	Version        int                `json:"version"`
	Treatment      TreatmentSelection `json:"treatment"`
	Logistics      LogisticsSelection `json:"logistics"`
	AddOns         AddOnSelection     `json:"addOns"`
	Notes          string             `json:"notes,omitempty"`
	Rates          RateCard           `json:"rates"`
	IdempotencyKey string             `json:"idempotencyKey"`
}
