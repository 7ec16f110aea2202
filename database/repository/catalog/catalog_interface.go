package catalog

import (
	"context"

	"healthtrip/models"
)

// CatalogRepository is the narrow query surface the wizard uses to resolve a
// selection id into its priced option. Catalog listings and search live
// elsewhere and are not this module's concern.
type CatalogRepository interface {
	GetPackage(ctx context.Context, id string) (*models.TreatmentPackage, error)
	GetAccommodation(ctx context.Context, id string) (*models.AccommodationOption, error)
	GetFlight(ctx context.Context, id string) (*models.FlightOption, error)
	GetTransfer(ctx context.Context, id string) (*models.TransferOption, error)
}
