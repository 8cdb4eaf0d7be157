package mongodb

import (
	"context"
	"fmt"

	"dealtrail/internal/models"
	"dealtrail/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type vendorRepository struct {
	collection *mongo.Collection
}

func NewVendorRepository(db *mongo.Database) interfaces.VendorRepository {
	return &vendorRepository{
		collection: db.Collection("vendors"),
	}
}

func (r *vendorRepository) GetAllVendors(ctx context.Context) ([]*models.Vendor, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer cursor.Close(ctx)

	var vendors []*models.Vendor
	for cursor.Next(ctx) {
		var vendor models.Vendor
		if err := cursor.Decode(&vendor); err != nil {
			return nil, fmt.Errorf("failed to decode vendor: %w", err)
		}
		if err := models.NormalizeVendor(&vendor); err != nil {
			continue
		}
		vendors = append(vendors, &vendor)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("vendor cursor error: %w", err)
	}

	return vendors, nil
}

func (r *vendorRepository) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vendor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vendor not found")
		}
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	if err := models.NormalizeVendor(&vendor); err != nil {
		return nil, fmt.Errorf("malformed vendor record: %w", err)
	}

	return &vendor, nil
}
