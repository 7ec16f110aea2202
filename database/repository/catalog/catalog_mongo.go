package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"healthtrip/database"
	"healthtrip/models"
)

const (
	dbName              = "healthtrip"
	packagesColl        = "packages"
	accommodationsColl  = "accommodations"
	flightsColl         = "flights"
	transfersColl       = "transfers"
	catalogQueryTimeout = 5 * time.Second
)

// MongoCatalogRepo implements CatalogRepository against MongoDB.
type MongoCatalogRepo struct {
	db *mongo.Database
}

func NewMongoCatalogRepo() *MongoCatalogRepo {
	return &MongoCatalogRepo{db: database.MongoClient.Database(dbName)}
}

func (r *MongoCatalogRepo) GetPackage(ctx context.Context, id string) (*models.TreatmentPackage, error) {
	var pkg models.TreatmentPackage
	if err := r.findByID(ctx, packagesColl, id, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *MongoCatalogRepo) GetAccommodation(ctx context.Context, id string) (*models.AccommodationOption, error) {
	var acc models.AccommodationOption
	if err := r.findByID(ctx, accommodationsColl, id, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *MongoCatalogRepo) GetFlight(ctx context.Context, id string) (*models.FlightOption, error) {
	var fl models.FlightOption
	if err := r.findByID(ctx, flightsColl, id, &fl); err != nil {
		return nil, err
	}
	return &fl, nil
}

func (r *MongoCatalogRepo) GetTransfer(ctx context.Context, id string) (*models.TransferOption, error) {
	var tr models.TransferOption
	if err := r.findByID(ctx, transfersColl, id, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (r *MongoCatalogRepo) findByID(ctx context.Context, coll, id string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, catalogQueryTimeout)
	defer cancel()

	err := r.db.Collection(coll).FindOne(ctx, bson.M{"id": id}).Decode(out)
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("%s %q not found", coll, id)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch %s %q: %w", coll, id, err)
	}
	return nil
}
