package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is one saved analysis result in the 'reports' collection.  The
// Report field holds the normalized result envelope as a raw JSON string so
// the stored document stays opaque to schema changes in the external
// services.
type Report struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"user_id" bson:"userId"`
	DiagnosisType string             `json:"diagnosis_type" bson:"diagnosisType"`
	Report        string             `json:"report" bson:"report"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}
