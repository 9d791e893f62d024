package patient

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

// Service owns patient registration and credential checks.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput is the registration payload. YearOfBirth and PIN are stored
// joined as the patient's credential.
type RegisterInput struct {
	Phone          string  `json:"phone_number"`
	FullName       string  `json:"full_name"`
	YearOfBirth    string  `json:"year_of_birth"`
	PIN            string  `json:"pin"`
	ChronicHistory *string `json:"chronic_history,omitempty"`
}

// Register creates a new patient. The phone number is the identity: a second
// registration for the same phone fails with ErrDuplicate.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, error) {
	if !ValidPhone(in.Phone) {
		return nil, fmt.Errorf("phone_number must be 10 to 15 digits")
	}
	if in.FullName == "" {
		return nil, fmt.Errorf("full_name is required")
	}
	cred, err := MakeCredential(in.YearOfBirth, in.PIN)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		Phone:          in.Phone,
		Credential:     cred,
		FullName:       in.FullName,
		ChronicHistory: in.ChronicHistory,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the patient profile for a phone number.
func (s *Service) Get(ctx context.Context, phone string) (*Patient, error) {
	return s.repo.GetByPhone(ctx, phone)
}

// List returns registered patients, most recent first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Exists reports whether a patient is registered under the phone number.
func (s *Service) Exists(ctx context.Context, phone string) (bool, error) {
	return s.repo.Exists(ctx, phone)
}

// VerifyPIN checks a login attempt. Unknown phone and wrong PIN are both a
// plain false so callers cannot fish for registered numbers.
func (s *Service) VerifyPIN(ctx context.Context, phone, pin string) (bool, error) {
	p, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	stored := p.PIN()
	if stored == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) == 1, nil
}
