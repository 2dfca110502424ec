package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/megaqc-web/internal/models"
)

type distinctFinder interface {
	Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error)
}

// MongoStore reads reports and plot configs from MongoDB.
type MongoStore struct {
	reports *mongo.Collection
	plots   distinctFinder
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		reports: db.Collection("reports"),
		plots:   db.Collection("plot_configs"),
	}
}

// ListReports returns every report, oldest first.
func (s *MongoStore) ListReports(ctx context.Context) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.reports.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find reports: %w", err)
	}
	defer cur.Close(ctx)

	var reports []models.Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("mongo decode reports: %w", err)
	}
	return reports, nil
}

func (s *MongoStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var r models.Report
	if err := s.reports.FindOne(ctx, bson.M{"_id": oid}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find report: %w", err)
	}
	return &r, nil
}

// PlotSections returns the distinct plot config sections in ascending order.
func (s *MongoStore) PlotSections(ctx context.Context) ([]string, error) {
	values, err := s.plots.Distinct(ctx, "section", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo distinct sections: %w", err)
	}
	sections := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			sections = append(sections, str)
		}
	}
	sort.Strings(sections)
	return sections, nil
}
