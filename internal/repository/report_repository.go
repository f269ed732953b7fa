package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lostserver/diagnostic-gateway/internal/model"
)

// ReportStore persists analysis results for later retrieval by the patient.
type ReportStore interface {
	Save(ctx context.Context, userID, diagnosisType, report string) (model.Report, error)
	ListByUser(ctx context.Context, userID string) ([]model.Report, error)
}

// ReportRepo stores saved analyses in the 'reports' collection.
type ReportRepo struct {
	col *mongo.Collection
}

func NewReportRepo(db *mongo.Database) *ReportRepo {
	return &ReportRepo{col: db.Collection("reports")}
}

// Save inserts one analysis result keyed to a user.
func (r *ReportRepo) Save(ctx context.Context, userID, diagnosisType, report string) (model.Report, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return model.Report{}, ErrNotFound
	}
	doc := model.Report{
		UserID:        oid,
		DiagnosisType: diagnosisType,
		Report:        report,
		CreatedAt:     time.Now().UTC(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return model.Report{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	return doc, nil
}

// ListByUser returns a user's saved analyses, newest first.
func (r *ReportRepo) ListByUser(ctx context.Context, userID string) ([]model.Report, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	cur, err := r.col.Find(ctx, bson.M{"userId": oid},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	reports := []model.Report{}
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}
