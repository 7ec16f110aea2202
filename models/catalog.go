package models

// TreatmentPackage is a pre-priced hospital+doctor+treatment bundle.
type TreatmentPackage struct {
	ID            string  `bson:"id" json:"id"`
	HospitalID    string  `bson:"hospital_id" json:"hospitalId"`
	DoctorID      string  `bson:"doctor_id" json:"doctorId"`
	TreatmentType string  `bson:"treatment_type" json:"treatmentType"`
	Price         float64 `bson:"price" json:"price"`
}

// AccommodationOption is the priced view of an accommodation listing.
type AccommodationOption struct {
	ID            string  `bson:"id" json:"id"`
	Name          string  `bson:"name" json:"name"`
	PricePerNight float64 `bson:"price_per_night" json:"pricePerNight"`
}

// FlightOption is the priced view of a flight listing.
type FlightOption struct {
	ID    string  `bson:"id" json:"id"`
	Route string  `bson:"route" json:"route"`
	Price float64 `bson:"price" json:"price"`
}

// TransferOption is the priced view of an airport transfer listing.
type TransferOption struct {
	ID    string  `bson:"id" json:"id"`
	Kind  string  `bson:"kind" json:"kind"`
	Price float64 `bson:"price" json:"price"`
}
