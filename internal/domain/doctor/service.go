package doctor

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/triage"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4,10}$`)

// Service owns doctor accounts and tier lookups.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput is the admin payload for a new doctor account.
type CreateInput struct {
	Name string      `json:"name"`
	Tier triage.Tier `json:"role_tier"`
	PIN  string      `json:"pin"`
}

// Create adds a doctor account.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Doctor, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !triage.ValidTier(in.Tier) {
		return nil, fmt.Errorf("role_tier must be JUNIOR or SENIOR")
	}
	if !pinPattern.MatchString(in.PIN) {
		return nil, fmt.Errorf("pin must be 4 to 10 digits")
	}

	d := &Doctor{Name: in.Name, Tier: in.Tier, PIN: in.PIN}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns a doctor by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all doctor accounts.
func (s *Service) List(ctx context.Context) ([]*Doctor, error) {
	return s.repo.List(ctx)
}

// Delete removes a doctor account.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// TierOf returns the tier of the doctor with the given id.
func (s *Service) TierOf(ctx context.Context, id uuid.UUID) (triage.Tier, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return d.Tier, nil
}

// VerifyPIN checks a doctor login attempt and returns the doctor's tier.
// Unknown id and wrong PIN are both a plain false.
func (s *Service) VerifyPIN(ctx context.Context, id uuid.UUID, pin string) (string, bool, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if subtle.ConstantTimeCompare([]byte(d.PIN), []byte(pin)) != 1 {
		return "", false, nil
	}
	return string(d.Tier), true, nil
}
