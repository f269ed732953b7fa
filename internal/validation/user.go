// Package validation holds the input checks performed at the gateway
// boundary before anything touches the credential store or leaves for an
// external service.  Failures are plain errors with user-facing messages;
// handlers surface them inline against the offending field.
package validation

import (
	"errors"
	"regexp"
	"time"

	"github.com/lostserver/diagnostic-gateway/internal/model"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s]*$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^([+]?\d{1,2}[-\s]?|)\d{3}[-\s]?\d{3}[-\s]?\d{4}$`)

	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

var bloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

// ValidateName checks the display name: at most 50 characters, letters and
// spaces only.  Presence is the handler's concern, so any non-empty name
// that fits the charset passes.
func ValidateName(name string) error {
	if len(name) > 50 {
		return errors.New("Name must not exceed 50 characters")
	}
	if !nameRe.MatchString(name) {
		return errors.New("Name can only contain letters and spaces")
	}
	return nil
}

// ValidateEmail checks the email shape and length bounds.
func ValidateEmail(email string) error {
	if len(email) < 5 {
		return errors.New("Email must be at least 5 characters")
	}
	if len(email) > 100 {
		return errors.New("Email must not exceed 100 characters")
	}
	if !emailRe.MatchString(email) {
		return errors.New("Invalid email address")
	}
	return nil
}

// ValidatePassword enforces the complexity rules: at least 8 characters
// with an upper-case letter, a lower-case letter, a digit and a special
// character.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters")
	}
	if len(password) > 100 {
		return errors.New("Password must not exceed 100 characters")
	}
	if !upperRe.MatchString(password) {
		return errors.New("Password must contain at least one uppercase letter")
	}
	if !lowerRe.MatchString(password) {
		return errors.New("Password must contain at least one lowercase letter")
	}
	if !digitRe.MatchString(password) {
		return errors.New("Password must contain at least one number")
	}
	if !specialRe.MatchString(password) {
		return errors.New("Password must contain at least one special character")
	}
	return nil
}

// ValidateRegistration runs the required-field checks for a new account.
func ValidateRegistration(name, email, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateProfile checks the optional patient attributes.  Absent fields
// pass; present fields must be in range.
func ValidateProfile(p model.Profile) error {
	if p.Age != nil && (*p.Age < 0 || *p.Age > 150) {
		return errors.New("Age must be between 0 and 150")
	}
	if p.BloodGroup != "" && !bloodGroups[p.BloodGroup] {
		return errors.New("Invalid blood group")
	}
	if p.DOB != nil && p.DOB.After(time.Now()) {
		return errors.New("Date of birth cannot be in the future")
	}
	if len(p.Allergies) > 1000 {
		return errors.New("Allergies description must not exceed 1000 characters")
	}
	if p.Weight != nil && (*p.Weight < 0 || *p.Weight > 500) {
		return errors.New("Weight must be between 0 and 500 kg")
	}
	if p.Phone != "" && !phoneRe.MatchString(p.Phone) {
		return errors.New("Invalid phone number format")
	}
	if p.EmergencyContact != "" && !phoneRe.MatchString(p.EmergencyContact) {
		return errors.New("Invalid emergency contact format")
	}
	return nil
}
