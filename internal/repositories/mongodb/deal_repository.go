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

type dealRepository struct {
	collection *mongo.Collection
}

func NewDealRepository(db *mongo.Database) interfaces.DealRepository {
	return &dealRepository{
		collection: db.Collection("deals"),
	}
}

func (r *dealRepository) GetBirthdayDeals(ctx context.Context) ([]*models.Deal, error) {
	return r.find(ctx, bson.M{"deal_type": models.DealTypeBirthday})
}

func (r *dealRepository) GetDailyDeals(ctx context.Context, day models.DayOfWeek) ([]*models.Deal, error) {
	if !models.IsValidDay(day) {
		return nil, fmt.Errorf("invalid day %q", day)
	}
	return r.find(ctx, bson.M{"deal_type": models.DealTypeDaily, "day": day})
}

func (r *dealRepository) GetMultiDayDeals(ctx context.Context, day models.DayOfWeek) ([]*models.Deal, error) {
	if !models.IsValidDay(day) {
		return nil, fmt.Errorf("invalid day %q", day)
	}
	// active_days is an array field; equality matches set membership.
	return r.find(ctx, bson.M{"deal_type": models.DealTypeMultiDay, "active_days": day})
}

func (r *dealRepository) GetSpecialDeals(ctx context.Context) ([]*models.Deal, error) {
	return r.find(ctx, bson.M{"deal_type": models.DealTypeSpecial})
}

func (r *dealRepository) GetEverydayDeals(ctx context.Context) ([]*models.Deal, error) {
	return r.find(ctx, bson.M{"deal_type": models.DealTypeEveryday})
}

func (r *dealRepository) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	var deal models.Deal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&deal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("deal not found")
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	if err := models.NormalizeDeal(&deal); err != nil {
		return nil, fmt.Errorf("malformed deal record: %w", err)
	}

	return &deal, nil
}

func (r *dealRepository) find(ctx context.Context, filter bson.M) ([]*models.Deal, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer cursor.Close(ctx)

	var deals []*models.Deal
	for cursor.Next(ctx) {
		var deal models.Deal
		if err := cursor.Decode(&deal); err != nil {
			return nil, fmt.Errorf("failed to decode deal: %w", err)
		}
		// Malformed catalog records are dropped at the edge rather than
		// poisoning the cache.
		if err := models.NormalizeDeal(&deal); err != nil {
			continue
		}
		deals = append(deals, &deal)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("deal cursor error: %w", err)
	}

	return deals, nil
}
