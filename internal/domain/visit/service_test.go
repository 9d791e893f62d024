package visit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/doctor"
	"github.com/clinicq/clinicq/internal/domain/triage"
)

// -- Mock collaborators --

type mockRepo struct {
	mu     sync.Mutex
	visits map[uuid.UUID]*Visit
	nextAt time.Time
}

func newMockRepo() *mockRepo {
	return &mockRepo{visits: make(map[uuid.UUID]*Visit)}
}

func (m *mockRepo) Create(_ context.Context, v *Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		if m.nextAt.IsZero() {
			m.nextAt = time.Now()
		}
		v.CreatedAt = m.nextAt
		m.nextAt = m.nextAt.Add(time.Second)
	}
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockRepo) ListByTierAndStatus(_ context.Context, tier triage.Tier, statuses ...Status) ([]*Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Visit
	for _, v := range m.visits {
		if v.AssignedTier != tier {
			continue
		}
		for _, s := range statuses {
			if v.Status == s {
				cp := *v
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, phone string, _, _ int) ([]*Visit, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Visit
	for _, v := range m.visits {
		if v.PatientPhone == phone {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) List(_ context.Context, status *Status, _, _ int) ([]*Visit, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Visit
	for _, v := range m.visits {
		if status == nil || v.Status == *status {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Start(_ context.Context, id, doctorID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return false, ErrNotFound
	}
	if v.Status != StatusWaiting {
		return false, nil
	}
	v.Status = StatusInProgress
	v.DoctorID = &doctorID
	return true, nil
}

func (m *mockRepo) Update(_ context.Context, v *Visit, expected Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.visits[v.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != expected {
		return fmt.Errorf("visit %s changed status: %w", v.ID, ErrConflict)
	}
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

type mockDoctors struct {
	tiers map[uuid.UUID]triage.Tier
}

func (m *mockDoctors) TierOf(_ context.Context, id uuid.UUID) (triage.Tier, error) {
	tier, ok := m.tiers[id]
	if !ok {
		// Same sentinel the doctor service returns.
		return "", fmt.Errorf("doctor %s: %w", id, doctor.ErrNotFound)
	}
	return tier, nil
}

type mockPatients struct {
	phones map[string]bool
}

func (m *mockPatients) Exists(_ context.Context, phone string) (bool, error) {
	return m.phones[phone], nil
}

type fixedExtractor struct {
	symptoms *triage.Symptoms
	err      error
}

func (e *fixedExtractor) Extract(_ context.Context, _ string) (*triage.Symptoms, error) {
	return e.symptoms, e.err
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	junior   uuid.UUID
	senior   uuid.UUID
	doctors  *mockDoctors
	patients *mockPatients
}

func newFixture() *fixture {
	repo := newMockRepo()
	junior := uuid.New()
	senior := uuid.New()
	doctors := &mockDoctors{tiers: map[uuid.UUID]triage.Tier{
		junior: triage.TierJunior,
		senior: triage.TierSenior,
	}}
	patients := &mockPatients{phones: map[string]bool{"5550001111": true}}
	svc := NewService(repo, doctors, patients, triage.NewScorer(nil, 0), nil, nil)
	return &fixture{svc: svc, repo: repo, junior: junior, senior: senior, doctors: doctors, patients: patients}
}

// -- CreateVisit --

func TestCreateVisit_LowSeverity(t *testing.T) {
	f := newFixture()
	v, err := f.svc.CreateVisit(context.Background(), CreateInput{
		PatientPhone: "5550001111",
		SymptomsRaw:  "mild headache",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.SeverityScore != 0.3 {
		t.Errorf("expected score 0.3, got %v", v.SeverityScore)
	}
	if v.SeverityLevel() != triage.LevelLow {
		t.Errorf("expected LOW, got %s", v.SeverityLevel())
	}
	if v.AssignedTier != triage.TierJunior {
		t.Errorf("expected JUNIOR tier, got %s", v.AssignedTier)
	}
	if v.Status != StatusWaiting {
		t.Errorf("expected WAITING, got %s", v.Status)
	}
	if v.DoctorID != nil {
		t.Error("expected no assigned doctor at creation")
	}
}

func TestCreateVisit_HighSeverity(t *testing.T) {
	f := newFixture()
	v, err := f.svc.CreateVisit(context.Background(), CreateInput{
		PatientPhone: "5550001111",
		SymptomsRaw:  "sudden chest pain and difficulty breathing",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.SeverityScore < 0.7 {
		t.Errorf("expected score >= 0.7, got %v", v.SeverityScore)
	}
	if v.SeverityLevel() != triage.LevelHigh {
		t.Errorf("expected HIGH, got %s", v.SeverityLevel())
	}
	if v.AssignedTier != triage.TierSenior {
		t.Errorf("expected SENIOR tier, got %s", v.AssignedTier)
	}
}

func TestCreateVisit_UnknownPatient(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateVisit(context.Background(), CreateInput{
		PatientPhone: "0000000000",
		SymptomsRaw:  "cough",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateVisit_ExtractionFailureDoesNotBlockIntake(t *testing.T) {
	f := newFixture()
	f.svc.extractor = &fixedExtractor{err: errors.New("extraction service down")}
	v, err := f.svc.CreateVisit(context.Background(), CreateInput{
		PatientPhone: "5550001111",
		SymptomsRaw:  "mild headache",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.SeverityScore != 0.3 {
		t.Errorf("expected heuristic score 0.3, got %v", v.SeverityScore)
	}
}

func TestCreateVisit_EmptyTextStillScores(t *testing.T) {
	f := newFixture()
	v, err := f.svc.CreateVisit(context.Background(), CreateInput{PatientPhone: "5550001111"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.SeverityScore != 0.3 {
		t.Errorf("expected base score 0.3, got %v", v.SeverityScore)
	}
}

// -- StartVisit --

func (f *fixture) createWaiting(t *testing.T, raw string) *Visit {
	t.Helper()
	v, err := f.svc.CreateVisit(context.Background(), CreateInput{
		PatientPhone: "5550001111",
		SymptomsRaw:  raw,
	})
	if err != nil {
		t.Fatalf("create visit: %v", err)
	}
	return v
}

func TestStartVisit(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")

	started, err := f.svc.StartVisit(context.Background(), v.ID, f.junior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started.Status != StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", started.Status)
	}
	if started.DoctorID == nil || *started.DoctorID != f.junior {
		t.Error("expected doctor to be assigned")
	}
}

func TestStartVisit_TierMismatch(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache") // JUNIOR tier

	_, err := f.svc.StartVisit(context.Background(), v.ID, f.senior)
	if !errors.Is(err, ErrTierMismatch) {
		t.Errorf("expected ErrTierMismatch, got %v", err)
	}
	got, _ := f.repo.GetByID(context.Background(), v.ID)
	if got.Status != StatusWaiting || got.DoctorID != nil {
		t.Error("tier mismatch must not mutate the visit")
	}
}

func TestStartVisit_UnknownVisit(t *testing.T) {
	f := newFixture()
	_, err := f.svc.StartVisit(context.Background(), uuid.New(), f.junior)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStartVisit_UnknownDoctor(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	_, err := f.svc.StartVisit(context.Background(), v.ID, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStartVisit_AlreadyInProgress(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	if _, err := f.svc.StartVisit(context.Background(), v.ID, f.junior); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.StartVisit(context.Background(), v.ID, f.junior)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestStartVisit_ConcurrentClaims(t *testing.T) {
	f := newFixture()
	second := uuid.New()
	f.svc.doctors.(*mockDoctors).tiers[second] = triage.TierJunior
	v := f.createWaiting(t, "mild headache")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, doc := range []uuid.UUID{f.junior, second} {
		wg.Add(1)
		go func(i int, doc uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.StartVisit(context.Background(), v.ID, doc)
		}(i, doc)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner and one conflict, got %d wins, %d conflicts", wins, conflicts)
	}
	got, _ := f.repo.GetByID(context.Background(), v.ID)
	if got.DoctorID == nil {
		t.Fatal("expected exactly one assigned doctor")
	}
}

// -- UpdateVisit --

func strPtr(s string) *string { return &s }

func statusPtr(s Status) *Status { return &s }

func TestUpdateVisit_Complete(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	if _, err := f.svc.StartVisit(context.Background(), v.ID, f.junior); err != nil {
		t.Fatal(err)
	}

	updated, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{
		DoctorNotes:  strPtr("rest and fluids"),
		Prescription: strPtr("paracetamol 500mg"),
		Status:       statusPtr(StatusCompleted),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Error("expected completed_at to be stamped")
	}
	if updated.DoctorNotes == nil || *updated.DoctorNotes != "rest and fluids" {
		t.Error("expected doctor notes to be saved")
	}
}

func TestUpdateVisit_CompletionIsTerminal(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	f.svc.StartVisit(context.Background(), v.ID, f.junior)
	f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{Status: statusPtr(StatusCompleted)})

	if _, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{Status: statusPtr(StatusInProgress)}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition reopening a completed visit, got %v", err)
	}
	if _, err := f.svc.StartVisit(context.Background(), v.ID, f.junior); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition starting a completed visit, got %v", err)
	}
}

func TestUpdateVisit_SkippingInProgressRejected(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	_, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{Status: statusPtr(StatusCompleted)})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for WAITING -> COMPLETED, got %v", err)
	}
}

func TestUpdateVisit_ClaimViaUpdateRejected(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	_, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{Status: statusPtr(StatusInProgress)})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition claiming via update, got %v", err)
	}
}

func TestUpdateVisit_NotesWhileWaiting(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	updated, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{DoctorNotes: strPtr("early triage notes")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DoctorNotes == nil || *updated.DoctorNotes != "early triage notes" {
		t.Error("expected notes to be saved on a waiting visit")
	}
	if updated.Status != StatusWaiting {
		t.Errorf("expected status to stay WAITING, got %s", updated.Status)
	}
}

func TestUpdateVisit_NotesAfterCompletionRejected(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	f.svc.StartVisit(context.Background(), v.ID, f.junior)
	f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{Status: statusPtr(StatusCompleted)})

	_, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{DoctorNotes: strPtr("late addendum")})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for notes on completed visit, got %v", err)
	}
}

// staleReadRepo yields to interleave once after the service has read the
// visit, simulating another doctor committing in between.
type staleReadRepo struct {
	Repository
	interleave func()
}

func (r *staleReadRepo) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := r.Repository.GetByID(ctx, id)
	if r.interleave != nil {
		f := r.interleave
		r.interleave = nil
		f()
	}
	return v, err
}

func TestUpdateVisit_ConcurrentCompletionNotClobbered(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	if _, err := f.svc.StartVisit(context.Background(), v.ID, f.junior); err != nil {
		t.Fatal(err)
	}

	stale := &staleReadRepo{Repository: f.repo}
	stale.interleave = func() {
		if _, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{Status: statusPtr(StatusCompleted)}); err != nil {
			t.Fatalf("interleaved completion: %v", err)
		}
	}
	svc := NewService(stale, f.doctors, f.patients, triage.NewScorer(nil, 0), nil, nil)

	_, err := svc.UpdateVisit(context.Background(), v.ID, UpdateInput{DoctorNotes: strPtr("stale note")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for a write over a completed visit, got %v", err)
	}

	got, _ := f.repo.GetByID(context.Background(), v.ID)
	if got.Status != StatusCompleted {
		t.Errorf("expected status to stay COMPLETED, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to survive the lost write")
	}
	if got.DoctorNotes != nil {
		t.Errorf("expected the stale note to be discarded, got %q", *got.DoctorNotes)
	}
}

func TestUpdateVisit_UnknownStatus(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	bogus := Status("TRIAGED")
	_, err := f.svc.UpdateVisit(context.Background(), v.ID, UpdateInput{Status: &bogus})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for unknown status, got %v", err)
	}
}

// -- Queue reads --

func TestQueueStatus_TieBreakByCreation(t *testing.T) {
	f := newFixture()
	first := f.createWaiting(t, "mild headache")
	second := f.createWaiting(t, "mild headache")

	snapFirst, err := f.svc.QueueStatus(context.Background(), first.ID)
	if err != nil {
		t.Fatal(err)
	}
	snapSecond, err := f.svc.QueueStatus(context.Background(), second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snapFirst.QueuePosition == nil || *snapFirst.QueuePosition != 1 {
		t.Errorf("expected earlier visit at position 1, got %v", snapFirst.QueuePosition)
	}
	if snapSecond.QueuePosition == nil || *snapSecond.QueuePosition != 2 {
		t.Errorf("expected later visit at position 2, got %v", snapSecond.QueuePosition)
	}
	if snapSecond.EstimatedWaitMinutes == nil || *snapSecond.EstimatedWaitMinutes != 15 {
		t.Errorf("expected 15 minute wait for position 2, got %v", snapSecond.EstimatedWaitMinutes)
	}
}

func TestQueueStatus_SeverityOutranksArrival(t *testing.T) {
	f := newFixture()
	f.createWaiting(t, "mild headache")                 // 0.3
	urgent := f.createWaiting(t, "high fever vomiting") // 0.6, arrived later

	snap, err := f.svc.QueueStatus(context.Background(), urgent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.QueuePosition == nil || *snap.QueuePosition != 1 {
		t.Errorf("expected highest-severity visit at position 1, got %v", snap.QueuePosition)
	}
	if snap.EstimatedWaitMinutes == nil || *snap.EstimatedWaitMinutes != 0 {
		t.Errorf("expected zero wait at the head of the queue, got %v", snap.EstimatedWaitMinutes)
	}
}

func TestQueueStatus_NonWaitingHasNoPosition(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	f.svc.StartVisit(context.Background(), v.ID, f.junior)

	snap, err := f.svc.QueueStatus(context.Background(), v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.QueuePosition != nil {
		t.Error("expected no queue position for an in-progress visit")
	}
}

func TestDoctorQueue(t *testing.T) {
	f := newFixture()
	low := f.createWaiting(t, "mild headache")
	f.createWaiting(t, "sudden chest pain, can't breathe") // SENIOR tier
	mid := f.createWaiting(t, "high fever vomiting")

	visits, stats, err := f.svc.DoctorQueue(context.Background(), f.junior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits in junior queue, got %d", len(visits))
	}
	if visits[0].ID != mid.ID || visits[1].ID != low.ID {
		t.Error("expected queue ordered by severity descending")
	}
	if stats.TotalWaiting != 2 {
		t.Errorf("expected 2 waiting, got %d", stats.TotalWaiting)
	}
	if stats.HighestSeverity == nil || *stats.HighestSeverity != 0.6 {
		t.Errorf("expected highest severity 0.6, got %v", stats.HighestSeverity)
	}
}

func TestDoctorQueue_IncludesInProgress(t *testing.T) {
	f := newFixture()
	v := f.createWaiting(t, "mild headache")
	f.svc.StartVisit(context.Background(), v.ID, f.junior)

	visits, stats, err := f.svc.DoctorQueue(context.Background(), f.junior)
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 1 || visits[0].Status != StatusInProgress {
		t.Error("expected in-progress visit to remain in the doctor queue")
	}
	if stats.TotalWaiting != 0 {
		t.Errorf("expected 0 waiting, got %d", stats.TotalWaiting)
	}
}

func TestDoctorQueue_UnknownDoctor(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.DoctorQueue(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
