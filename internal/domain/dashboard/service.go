package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/domain/patient"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// Snapshot is a consistent, complete copy of registry, catalog, and
// statistics at one instant, as produced by a bootstrap source.
type Snapshot struct {
	Patients []*patient.Patient `json:"patients"`
	Vaccines []*vaccine.Vaccine `json:"vaccines"`
	Stats    *Statistics        `json:"stats,omitempty"`
}

// Service is the single controlled update path over the patient registry,
// vaccine catalog, and statistics aggregator. Every mutation runs under one
// mutex, so no two mutations interleave their reads and writes.
type Service struct {
	mu       sync.Mutex
	patients *patient.Service
	vaccines *vaccine.Service
	stats    *Aggregator
	logger   zerolog.Logger
}

func NewService(patients *patient.Service, vaccines *vaccine.Service, stats *Aggregator, logger zerolog.Logger) *Service {
	return &Service{
		patients: patients,
		vaccines: vaccines,
		stats:    stats,
		logger:   logger,
	}
}

// requirements snapshots the catalog's dose requirements for status
// derivation. Caller holds s.mu.
func (s *Service) requirements(ctx context.Context) (patient.RequirementSet, error) {
	all, _, err := s.vaccines.List(ctx, 0, 0)
	if err != nil {
		return patient.RequirementSet{}, err
	}
	reqs := make([]patient.Requirement, 0, len(all))
	for _, v := range all {
		reqs = append(reqs, patient.Requirement{VaccineID: v.ID, Name: v.Name, Doses: v.DosesRequired})
	}
	return patient.NewRequirementSet(reqs)
}

// AddPatient registers a patient and updates the statistics.
func (s *Service) AddPatient(ctx context.Context, p *patient.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs, err := s.requirements(ctx)
	if err != nil {
		return err
	}
	if err := s.patients.Create(ctx, p, reqs); err != nil {
		return err
	}
	s.stats.OnPatientAdded(p)
	return nil
}

// AddVaccine adds a catalog entry and seeds its manufacturer-breakdown
// entry.
func (s *Service) AddVaccine(ctx context.Context, v *vaccine.Vaccine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vaccines.Create(ctx, v); err != nil {
		return err
	}
	s.stats.OnVaccineAdded(v)
	return nil
}

// AdministerVaccine appends one dose to the patient's history, decrements
// the vaccine's stock, rederives the patient's status, and updates the
// statistics. An unknown patient id fails with patient.ErrNotFound; a
// vaccine with zero stock fails with vaccine.ErrOutOfStock before any state
// changes.
func (s *Service) AdministerVaccine(ctx context.Context, patientID uuid.UUID, rec patient.VaccinationRecord, nextDoseDue *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Resolve both sides before mutating anything.
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return err
	}
	v, err := s.vaccines.Get(ctx, rec.VaccineID)
	if err != nil {
		// Tolerate a stale id when the denormalized name still resolves.
		v, err = s.vaccines.GetByName(ctx, rec.VaccineName)
		if err != nil {
			return fmt.Errorf("resolve vaccine %q: %w", rec.VaccineName, err)
		}
	}
	// The catalog is authoritative for both fields: clients may send an
	// id-only request or a name that disagrees with the id.
	rec.VaccineID = v.ID
	rec.VaccineName = v.Name

	if _, err := s.vaccines.DecrementStock(ctx, v.ID); err != nil {
		return err
	}

	reqs, err := s.requirements(ctx)
	if err != nil {
		return err
	}
	prev, next, p, err := s.patients.AppendRecord(ctx, patientID, rec, nextDoseDue, reqs)
	if err != nil {
		return err
	}
	s.stats.OnDoseAdministered(rec.VaccineName, p.Age, prev, next)

	s.logger.Debug().
		Str("patient_id", patientID.String()).
		Str("vaccine", rec.VaccineName).
		Str("status", string(next)).
		Msg("dose administered")
	return nil
}

// ApplySnapshot installs a bootstrap snapshot as the session's initial
// state. The whole snapshot is validated before anything is created, so a
// malformed dataset never leaves a partial catalog or registry behind and a
// later retry starts from a clean slate. Statistics are recomputed from the
// snapshot's registry and catalog rather than trusted from the source; a
// disagreeing source is logged.
func (s *Service) ApplySnapshot(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seenVaccines := make(map[uuid.UUID]bool, len(snap.Vaccines))
	reqs := make([]patient.Requirement, 0, len(snap.Vaccines))
	for _, v := range snap.Vaccines {
		if err := vaccine.Validate(v); err != nil {
			return fmt.Errorf("snapshot vaccine %q: %w", v.Name, err)
		}
		if seenVaccines[v.ID] {
			return fmt.Errorf("snapshot vaccine %q: duplicate id %s", v.Name, v.ID)
		}
		seenVaccines[v.ID] = true
		reqs = append(reqs, patient.Requirement{VaccineID: v.ID, Name: v.Name, Doses: v.DosesRequired})
	}
	set, err := patient.NewRequirementSet(reqs)
	if err != nil {
		return err
	}

	seenPatients := make(map[uuid.UUID]bool, len(snap.Patients))
	for _, p := range snap.Patients {
		if err := patient.Validate(p); err != nil {
			return fmt.Errorf("snapshot patient %q: %w", p.Name, err)
		}
		if seenPatients[p.ID] {
			return fmt.Errorf("snapshot patient %q: duplicate id %s", p.Name, p.ID)
		}
		seenPatients[p.ID] = true
	}

	// Validation passed; with in-memory stores and fresh ids the creates
	// below cannot fail, so the apply is all-or-nothing.
	for _, v := range snap.Vaccines {
		if err := s.vaccines.Create(ctx, v); err != nil {
			return fmt.Errorf("apply vaccine %q: %w", v.Name, err)
		}
	}
	for _, p := range snap.Patients {
		if err := s.patients.Create(ctx, p, set); err != nil {
			return fmt.Errorf("apply patient %q: %w", p.Name, err)
		}
	}

	s.stats.Reload(snap.Patients, snap.Vaccines)

	if snap.Stats != nil {
		got := s.stats.Snapshot()
		if snap.Stats.TotalPatients != got.TotalPatients ||
			snap.Stats.TotalDosesAdministered != got.TotalDosesAdministered ||
			snap.Stats.FullyVaccinatedCount != got.FullyVaccinatedCount {
			s.logger.Warn().
				Int("source_patients", snap.Stats.TotalPatients).
				Int("derived_patients", got.TotalPatients).
				Msg("bootstrap statistics disagree with snapshot contents; using recomputed values")
		}
	}
	return nil
}

// Patients returns a page of the registry.
func (s *Service) Patients(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// Vaccines returns a page of the catalog.
func (s *Service) Vaccines(ctx context.Context, limit, offset int) ([]*vaccine.Vaccine, int, error) {
	return s.vaccines.List(ctx, limit, offset)
}

// Stats returns the current statistics snapshot.
func (s *Service) Stats() Statistics {
	return s.stats.Snapshot()
}
