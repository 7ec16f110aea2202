package models

// ReservationRequest is the full draft payload sent to the reservation
// creation endpoint.
type ReservationRequest struct {
	HospitalID         string  `json:"hospitalId,omitempty"`
	DoctorID           string  `json:"doctorId,omitempty"`
	PackageID          string  `json:"packageId,omitempty"`
	TreatmentType      string  `json:"treatmentType"`
	AppointmentDate    string  `json:"appointmentDate"`
	AppointmentTime    string  `json:"appointmentTime"`
	AccommodationID    string  `json:"accommodationId"`
	FlightID           string  `json:"flightId,omitempty"`
	TransferID         string  `json:"transferId,omitempty"`
	CheckInDate        string  `json:"checkInDate"`
	CheckOutDate       string  `json:"checkOutDate"`
	VisaService        bool    `json:"visaService"`
	TranslationService bool    `json:"translationService"`
	InsuranceService   bool    `json:"insuranceService"`
	Notes              string  `json:"notes,omitempty"`
	TotalPrice         float64 `json:"totalPrice"`
}

// ReservationReceipt identifies a committed reservation. The number is the
// human-readable reference (e.g. "HT-2026-A12B") shown to the customer.
type ReservationReceipt struct {
	ReservationID     string `json:"reservationId"`
	ReservationNumber string `json:"reservationNumber,omitempty"`
}

// ReminderPayload is the appointment reminder task payload.
type ReminderPayload struct {
	ReservationID     string `json:"reservationId"`
	ReservationNumber string `json:"reservationNumber"`
	AppointmentDate   string `json:"appointmentDate"`
	AppointmentTime   string `json:"appointmentTime"`
}
