package models

// TreatmentSelection captures step 1 of the wizard: what is being treated,
// where, by whom, and when. Either PackageID or the HospitalID/DoctorID pair
// identifies the medical side; the two are mutually exclusive.
type TreatmentSelection struct {
	PackageID       string `json:"packageId,omitempty"`
	HospitalID      string `json:"hospitalId,omitempty"`
	DoctorID        string `json:"doctorId,omitempty"`
	TreatmentType   string `json:"treatmentType,omitempty"`
	AppointmentDate string `json:"appointmentDate,omitempty"` // "YYYY-MM-DD"
	AppointmentTime string `json:"appointmentTime,omitempty"` // "HH:MM"
}

// LogisticsSelection captures step 2: where the patient stays and how they
// get there. Flight and transfer are optional.
type LogisticsSelection struct {
	AccommodationID string `json:"accommodationId,omitempty"`
	CheckInDate     string `json:"checkInDate,omitempty"`  // "YYYY-MM-DD"
	CheckOutDate    string `json:"checkOutDate,omitempty"` // "YYYY-MM-DD"
	FlightID        string `json:"flightId,omitempty"`
	TransferID      string `json:"transferId,omitempty"`
}

// AddOnSelection captures step 3's optional fixed-fee services.
type AddOnSelection struct {
	Visa        bool `json:"visa"`
	Translation bool `json:"translation"`
	Insurance   bool `json:"insurance"`
}

// RateCard holds the unit prices resolved from the catalogs for the current
// selections. The pricing function reads these; it never does lookups itself.
type RateCard struct {
	PackagePrice         float64 `json:"packagePrice"`
	AccommodationNightly float64 `json:"accommodationNightly"`
	FlightPrice          float64 `json:"flightPrice"`
	TransferPrice        float64 `json:"transferPrice"`
}

// PriceBreakdown is derived from the draft on every mutation. It is never
// mutated independently.
type PriceBreakdown struct {
	PackageTotal       float64 `json:"packageTotal"`
	AccommodationTotal float64 `json:"accommodationTotal"`
	FlightTotal        float64 `json:"flightTotal"`
	TransferTotal      float64 `json:"transferTotal"`
	AddOnTotal         float64 `json:"addOnTotal"`
	Nights             int     `json:"nights"`
	Total              float64 `json:"total"`
}

// ReservationDraft is the single mutable object for the lifetime of a wizard
// session. The SelectionStore owns it exclusively.
type ReservationDraft struct {
	Treatment      TreatmentSelection `json:"treatment"`
	Logistics      LogisticsSelection `json:"logistics"`
	AddOns         AddOnSelection     `json:"addOns"`
	Notes          string             `json:"notes,omitempty"`
	Rates          RateCard           `json:"rates"`
	Price          PriceBreakdown     `json:"price"`
	IdempotencyKey string             `json:"idempotencyKey"`
}

// ConflictRecord caches date keys known to conflict for the current
// (doctor, hospital) pair. Advisory only; the submission-time re-check is the
// sole source of truth.
type ConflictRecord struct {
	DoctorID   string          `json:"doctorId,omitempty"`
	HospitalID string          `json:"hospitalId,omitempty"`
	Dates      map[string]bool `json:"dates,omitempty"`
}
