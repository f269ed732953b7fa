package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User mirrors a document in the 'users' collection.  Email is the unique
// key.  The password hash is stored under 'password' but never serialized
// to JSON: responses carry the user without the credential.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password"`
	Profile      `bson:",inline"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Profile holds the optional patient attributes collected at registration
// or through a later profile update.  All fields are optional.
type Profile struct {
	Age              *int       `json:"age,omitempty" bson:"age,omitempty"`
	BloodGroup       string     `json:"bloodGroup,omitempty" bson:"bloodGroup,omitempty"`
	DOB              *time.Time `json:"dob,omitempty" bson:"dob,omitempty"`
	Allergies        string     `json:"allergies,omitempty" bson:"allergies,omitempty"`
	Weight           *float64   `json:"weight,omitempty" bson:"weight,omitempty"`
	Phone            string     `json:"phone,omitempty" bson:"phone,omitempty"`
	EmergencyContact string     `json:"emergencyContact,omitempty" bson:"emergencyContact,omitempty"`
}
