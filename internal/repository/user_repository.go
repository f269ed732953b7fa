package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lostserver/diagnostic-gateway/internal/model"
	"github.com/lostserver/diagnostic-gateway/internal/utils"
)

// UserStore is the credential-store surface the handlers depend on.  The
// Mongo-backed UserRepo is the production implementation; tests substitute
// an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, profile model.Profile, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdateProfile(ctx context.Context, id string, profile model.Profile) error
}

// UserRepo persists users in the 'users' collection.
type UserRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection("users")}
}

// Create hashes the password and inserts the user document.  Email is
// normalized to lower case before storage so the unique index catches
// case-variant duplicates.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, profile model.Profile, cost int) (model.User, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	now := time.Now().UTC()
	u := model.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Profile:      profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by its hex object id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.User{}, ErrNotFound
	}
	var u model.User
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UpdateProfile overwrites the optional profile attributes of a user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, profile model.Profile) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"age":              profile.Age,
		"bloodGroup":       profile.BloodGroup,
		"dob":              profile.DOB,
		"allergies":        profile.Allergies,
		"weight":           profile.Weight,
		"phone":            profile.Phone,
		"emergencyContact": profile.EmergencyContact,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
