package visit

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/triage"
)

// Repository is the visit store. Implementations must make Start atomic:
// exactly one of any number of concurrent Start calls for the same WAITING
// visit may succeed.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	ListByTierAndStatus(ctx context.Context, tier triage.Tier, statuses ...Status) ([]*Visit, error)
	ListByPatient(ctx context.Context, phone string, limit, offset int) ([]*Visit, int, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]*Visit, int, error)
	// Start claims a WAITING visit for a doctor via compare-and-swap on
	// status. It returns false when the visit exists but is no longer
	// WAITING, and ErrNotFound when it does not exist.
	Start(ctx context.Context, id, doctorID uuid.UUID) (bool, error)
	// Update persists the mutable fields of v, but only if the stored
	// status still equals expected. A lost race returns ErrConflict; a
	// missing row returns ErrNotFound.
	Update(ctx context.Context, v *Visit, expected Status) error
}

// DoctorDirectory resolves a doctor id to the doctor's clinician tier.
// Implemented by the doctor domain; the visit service only checks tier match.
type DoctorDirectory interface {
	TierOf(ctx context.Context, doctorID uuid.UUID) (triage.Tier, error)
}

// PatientDirectory reports whether a patient exists. Implemented by the
// patient domain.
type PatientDirectory interface {
	Exists(ctx context.Context, phone string) (bool, error)
}

// Extractor converts raw symptom text into structured data. Implementations
// wrap external services and must respect context deadlines; a nil result
// with an error simply means the scorer falls back to its heuristic.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (*triage.Symptoms, error)
}
