package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/triage"
)

// Status is the lifecycle state of a visit. Transitions are forward-only:
// WAITING -> IN_PROGRESS -> COMPLETED.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Valid reports whether s is a known visit status.
func (s Status) Valid() bool {
	return s == StatusWaiting || s == StatusInProgress || s == StatusCompleted
}

// CanTransitionTo reports whether next is a legal forward transition from s.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

// Visit maps to the visits table. SeverityScore is set once at intake and
// never recomputed; the severity level is always derived from it.
type Visit struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	PatientPhone      string           `db:"patient_phone" json:"patient_phone"`
	SymptomsRaw       string           `db:"symptoms_raw" json:"symptoms_raw"`
	SymptomsExtracted *triage.Symptoms `db:"symptoms_extracted" json:"symptoms_extracted,omitempty"`
	SeverityScore     float64          `db:"severity_score" json:"severity_score"`
	AssignedTier      triage.Tier      `db:"assigned_tier" json:"assigned_tier"`
	Status            Status           `db:"status" json:"status"`
	DoctorNotes       *string          `db:"doctor_notes" json:"doctor_notes,omitempty"`
	Prescription      *string          `db:"prescription" json:"prescription,omitempty"`
	DoctorID          *uuid.UUID       `db:"doctor_id" json:"doctor_id,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	CompletedAt       *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
}

// SeverityLevel derives the discrete severity level from the stored score.
// The level is never persisted independently, so it cannot drift.
func (v *Visit) SeverityLevel() triage.Level {
	return triage.Classify(v.SeverityScore)
}

// Snapshot is the visit view returned to API consumers. It adds the derived
// severity level and, for WAITING visits, queue position and estimated wait.
type Snapshot struct {
	ID                   uuid.UUID    `json:"id"`
	PatientPhone         string       `json:"patient_phone"`
	SeverityScore        float64      `json:"severity_score"`
	SeverityLevel        triage.Level `json:"severity_level"`
	AssignedTier         triage.Tier  `json:"assigned_tier"`
	Status               Status       `json:"status"`
	QueuePosition        *int         `json:"queue_position,omitempty"`
	EstimatedWaitMinutes *int         `json:"estimated_wait_minutes,omitempty"`
	DoctorNotes          *string      `json:"doctor_notes,omitempty"`
	Prescription         *string      `json:"prescription,omitempty"`
	DoctorID             *uuid.UUID   `json:"doctor_id,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	CompletedAt          *time.Time   `json:"completed_at,omitempty"`
}

// NewSnapshot builds a Snapshot from a visit without queue information.
func NewSnapshot(v *Visit) *Snapshot {
	return &Snapshot{
		ID:            v.ID,
		PatientPhone:  v.PatientPhone,
		SeverityScore: v.SeverityScore,
		SeverityLevel: v.SeverityLevel(),
		AssignedTier:  v.AssignedTier,
		Status:        v.Status,
		DoctorNotes:   v.DoctorNotes,
		Prescription:  v.Prescription,
		DoctorID:      v.DoctorID,
		CreatedAt:     v.CreatedAt,
		CompletedAt:   v.CompletedAt,
	}
}

// WithQueue attaches queue position and estimated wait to a snapshot.
func (s *Snapshot) WithQueue(position, waitMinutes int) *Snapshot {
	s.QueuePosition = &position
	s.EstimatedWaitMinutes = &waitMinutes
	return s
}
