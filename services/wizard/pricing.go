package wizard

import (
	"time"

	"healthtrip/models"
)

// Fixed add-on service fees.
const (
	VisaFee        = 150.0
	TranslationFee = 200.0
	InsuranceFee   = 100.0
)

const dateLayout = "2006-01-02"

// Nights returns the whole-day difference between check-in and check-out.
// A zero or negative difference yields zero nights; it is the step-2 validity
// predicate's job to reject such a stay, not this function's to clamp it.
// Unparseable dates also yield zero.
func Nights(checkIn, checkOut string) int {
	in, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return 0
	}
	out, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return 0
	}
	nights := int(out.Sub(in).Hours() / 24)
	if nights < 0 {
		return 0
	}
	return nights
}

// ComputePrice derives the price breakdown from the draft. Pure and
// deterministic: the same draft always yields the same breakdown.
func ComputePrice(d models.ReservationDraft) models.PriceBreakdown {
	var b models.PriceBreakdown

	if d.Treatment.PackageID != "" {
		b.PackageTotal = d.Rates.PackagePrice
	}

	b.Nights = Nights(d.Logistics.CheckInDate, d.Logistics.CheckOutDate)
	if d.Logistics.AccommodationID != "" && b.Nights > 0 {
		b.AccommodationTotal = d.Rates.AccommodationNightly * float64(b.Nights)
	}

	if d.Logistics.FlightID != "" {
		b.FlightTotal = d.Rates.FlightPrice
	}
	if d.Logistics.TransferID != "" {
		b.TransferTotal = d.Rates.TransferPrice
	}

	if d.AddOns.Visa {
		b.AddOnTotal += VisaFee
	}
	if d.AddOns.Translation {
		b.AddOnTotal += TranslationFee
	}
	if d.AddOns.Insurance {
		b.AddOnTotal += InsuranceFee
	}

	b.Total = b.PackageTotal + b.AccommodationTotal + b.FlightTotal + b.TransferTotal + b.AddOnTotal
	return b
}
