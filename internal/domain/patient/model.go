package patient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no patient exists for a phone number.
	ErrNotFound = errors.New("patient not found")
	// ErrDuplicate is returned when the phone number is already registered.
	ErrDuplicate = errors.New("patient already registered")
)

// Patient is keyed by phone number. Credential holds the birth-year-plus-PIN
// pair in YYYY#PIN form; it never leaves the service layer.
type Patient struct {
	Phone          string    `db:"phone_number" json:"phone_number"`
	Credential     string    `db:"yob_pin" json:"-"`
	FullName       string    `db:"full_name" json:"full_name"`
	ChronicHistory *string   `db:"chronic_history" json:"chronic_history,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
	pinPattern   = regexp.MustCompile(`^[0-9]{4}$`)
	yearPattern  = regexp.MustCompile(`^[0-9]{4}$`)
)

// ValidPhone reports whether phone is 10 to 15 digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// MakeCredential composes the stored YYYY#PIN credential.
func MakeCredential(yearOfBirth, pin string) (string, error) {
	if !yearPattern.MatchString(yearOfBirth) {
		return "", fmt.Errorf("year_of_birth must be a 4-digit year")
	}
	if !pinPattern.MatchString(pin) {
		return "", fmt.Errorf("pin must be 4 digits")
	}
	return yearOfBirth + "#" + pin, nil
}

// PIN extracts the PIN part of a stored credential. Returns "" when the
// credential is malformed.
func (p *Patient) PIN() string {
	_, pin, found := strings.Cut(p.Credential, "#")
	if !found {
		return ""
	}
	return pin
}
