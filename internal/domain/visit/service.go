package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/doctor"
	"github.com/clinicq/clinicq/internal/domain/triage"
)

// ConsultMinutes holds the configured per-consultation minutes used for wait
// estimates, keyed by clinician tier.
type ConsultMinutes map[triage.Tier]int

// DefaultConsultMinutes is used when configuration does not override it.
var DefaultConsultMinutes = ConsultMinutes{
	triage.TierJunior: 15,
	triage.TierSenior: 15,
}

// Minutes returns the per-consultation minutes for a tier.
func (c ConsultMinutes) Minutes(tier triage.Tier) int {
	if m, ok := c[tier]; ok {
		return m
	}
	return DefaultConsultMinutes[tier]
}

// Service drives the visit lifecycle: intake scoring and tier assignment,
// queue reads, doctor claims, and completion.
type Service struct {
	repo      Repository
	doctors   DoctorDirectory
	patients  PatientDirectory
	scorer    *triage.Scorer
	extractor Extractor
	consult   ConsultMinutes
	now       func() time.Time
}

// NewService wires a visit Service. extractor may be nil when no extraction
// backend is configured.
func NewService(repo Repository, doctors DoctorDirectory, patients PatientDirectory, scorer *triage.Scorer, extractor Extractor, consult ConsultMinutes) *Service {
	if consult == nil {
		consult = DefaultConsultMinutes
	}
	return &Service{
		repo:      repo,
		doctors:   doctors,
		patients:  patients,
		scorer:    scorer,
		extractor: extractor,
		consult:   consult,
		now:       time.Now,
	}
}

// CreateInput is the intake payload for a new visit.
type CreateInput struct {
	PatientPhone      string           `json:"patient_phone"`
	SymptomsRaw       string           `json:"symptoms_raw"`
	SymptomsExtracted *triage.Symptoms `json:"symptoms_extracted,omitempty"`
}

// CreateVisit scores the reported symptoms, assigns a tier, and persists a
// new WAITING visit. Scoring never blocks intake: extraction and model
// failures degrade to the keyword heuristic.
func (s *Service) CreateVisit(ctx context.Context, in CreateInput) (*Visit, error) {
	if in.PatientPhone == "" {
		return nil, fmt.Errorf("patient_phone is required")
	}
	ok, err := s.patients.Exists(ctx, in.PatientPhone)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", in.PatientPhone, ErrNotFound)
	}

	structured := in.SymptomsExtracted
	if structured == nil && s.extractor != nil {
		// Extraction is best-effort; a failed or slow extraction must
		// never block intake.
		structured, _ = s.extractor.Extract(ctx, in.SymptomsRaw)
	}

	score := s.scorer.Score(ctx, in.SymptomsRaw, structured)
	tier := triage.AssignTier(triage.Classify(score))

	v := &Visit{
		PatientPhone:      in.PatientPhone,
		SymptomsRaw:       in.SymptomsRaw,
		SymptomsExtracted: structured,
		SeverityScore:     score,
		AssignedTier:      tier,
		Status:            StatusWaiting,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	return v, nil
}

// GetVisit returns a visit by id.
func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// tierOf resolves a doctor's tier, translating the doctor domain's
// not-found into this domain's sentinel so callers see one ErrNotFound.
func (s *Service) tierOf(ctx context.Context, doctorID uuid.UUID) (triage.Tier, error) {
	tier, err := s.doctors.TierOf(ctx, doctorID)
	if errors.Is(err, doctor.ErrNotFound) {
		return "", fmt.Errorf("doctor %s: %w", doctorID, ErrNotFound)
	}
	return tier, err
}

// StartVisit claims a WAITING visit for a doctor. The doctor's tier must
// equal the visit's assigned tier. The claim is atomic: of two concurrent
// calls for the same visit, exactly one succeeds and the loser gets
// ErrConflict.
func (s *Service) StartVisit(ctx context.Context, visitID, doctorID uuid.UUID) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	tier, err := s.tierOf(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if v.Status == StatusCompleted {
		return nil, fmt.Errorf("visit %s is completed: %w", visitID, ErrInvalidTransition)
	}
	if tier != v.AssignedTier {
		return nil, fmt.Errorf("doctor tier %s, visit tier %s: %w", tier, v.AssignedTier, ErrTierMismatch)
	}
	claimed, err := s.repo.Start(ctx, visitID, doctorID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("visit %s: %w", visitID, ErrConflict)
	}
	return s.repo.GetByID(ctx, visitID)
}

// UpdateInput carries the mutable visit fields. Nil fields are left alone.
type UpdateInput struct {
	DoctorNotes  *string `json:"doctor_notes,omitempty"`
	Prescription *string `json:"prescription,omitempty"`
	Status       *Status `json:"status,omitempty"`
}

// UpdateVisit edits clinical notes and prescription and performs the
// IN_PROGRESS -> COMPLETED transition, stamping completed_at. Completion is
// terminal: a COMPLETED visit accepts no further edits of any kind. Status
// changes other than completing an in-progress visit are rejected.
func (s *Service) UpdateVisit(ctx context.Context, id uuid.UUID, in UpdateInput) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status == StatusCompleted {
		return nil, fmt.Errorf("visit %s is completed: %w", id, ErrInvalidTransition)
	}
	prior := v.Status

	if in.Status != nil {
		next := *in.Status
		if !next.Valid() {
			return nil, fmt.Errorf("unknown status %q: %w", string(next), ErrInvalidTransition)
		}
		if !v.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%s -> %s: %w", v.Status, next, ErrInvalidTransition)
		}
		if next == StatusInProgress {
			// Claiming a visit needs a doctor; that path is StartVisit.
			return nil, fmt.Errorf("use start to claim a visit: %w", ErrInvalidTransition)
		}
		v.Status = next
		now := s.now()
		v.CompletedAt = &now
	}

	if in.DoctorNotes != nil {
		v.DoctorNotes = in.DoctorNotes
	}
	if in.Prescription != nil {
		v.Prescription = in.Prescription
	}

	// The write lands only if the row still holds the status read above,
	// so a racing completion cannot be silently undone.
	if err := s.repo.Update(ctx, v, prior); err != nil {
		return nil, err
	}
	return v, nil
}

// QueueStatus returns the snapshot for a visit including, for WAITING
// visits, its live queue position and estimated wait. Positions are
// advisory: no lock is held, so they may be stale by display time.
func (s *Service) QueueStatus(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(v)
	if v.Status != StatusWaiting {
		return snap, nil
	}
	waiting, err := s.repo.ListByTierAndStatus(ctx, v.AssignedTier, StatusWaiting)
	if err != nil {
		return nil, err
	}
	pos := Position(waiting, v.ID)
	wait := EstimatedWaitMinutes(pos, s.consult.Minutes(v.AssignedTier))
	return snap.WithQueue(pos, wait), nil
}

// DoctorQueue returns the ordered queue for a doctor's tier: WAITING and
// IN_PROGRESS visits under the same comparator, plus summary stats.
func (s *Service) DoctorQueue(ctx context.Context, doctorID uuid.UUID) ([]*Visit, QueueStats, error) {
	tier, err := s.tierOf(ctx, doctorID)
	if err != nil {
		return nil, QueueStats{}, err
	}
	visits, err := s.repo.ListByTierAndStatus(ctx, tier, StatusWaiting, StatusInProgress)
	if err != nil {
		return nil, QueueStats{}, err
	}
	Order(visits)
	return visits, Stats(visits), nil
}

// ListByPatient returns a patient's visits, most recent first.
func (s *Service) ListByPatient(ctx context.Context, phone string, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, phone, limit, offset)
}

// List returns visits system-wide with an optional status filter.
func (s *Service) List(ctx context.Context, status *Status, limit, offset int) ([]*Visit, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}
