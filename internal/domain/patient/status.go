package patient

import (
	"fmt"

	"github.com/google/uuid"
)

// Requirement is the dose requirement of one catalog vaccine, as the status
// engine needs it: identity, display name, and doses to complete a course.
type Requirement struct {
	VaccineID uuid.UUID
	Name      string
	Doses     int
}

// RequirementSet indexes catalog requirements for status derivation.
// Records resolve by vaccine id first, then by denormalized name.
type RequirementSet struct {
	byID   map[uuid.UUID]Requirement
	byName map[string]uuid.UUID
}

// NewRequirementSet validates and indexes the given requirements. A
// non-positive dose count is malformed input and fails fast.
func NewRequirementSet(reqs []Requirement) (RequirementSet, error) {
	set := RequirementSet{
		byID:   make(map[uuid.UUID]Requirement, len(reqs)),
		byName: make(map[string]uuid.UUID, len(reqs)),
	}
	for _, r := range reqs {
		if r.Doses <= 0 {
			return RequirementSet{}, fmt.Errorf("vaccine %q: doses required must be positive, got %d", r.Name, r.Doses)
		}
		set.byID[r.VaccineID] = r
		if _, taken := set.byName[r.Name]; !taken {
			set.byName[r.Name] = r.VaccineID
		}
	}
	return set, nil
}

func (s RequirementSet) resolve(rec VaccinationRecord) (Requirement, bool) {
	if r, ok := s.byID[rec.VaccineID]; ok {
		return r, true
	}
	if id, ok := s.byName[rec.VaccineName]; ok {
		return s.byID[id], true
	}
	return Requirement{}, false
}

// DeriveStatus maps a vaccination history and the catalog's dose
// requirements to a vaccination status. Pure and deterministic.
//
// Rule: a patient is Fully Vaccinated only when every vaccine series they
// started has reached its required dose count (all-started-series-complete).
// A mixed course therefore stays Partially Vaccinated until every product's
// series is done.
//
// A record whose vaccine resolves neither by id nor by denormalized name is
// skipped for dose counting; a non-empty history with no resolvable record
// yields Partially Vaccinated, since doses were given but completion cannot
// be established.
func DeriveStatus(history []VaccinationRecord, reqs RequirementSet) Status {
	if len(history) == 0 {
		return StatusNotVaccinated
	}

	counts := make(map[uuid.UUID]int)
	for _, rec := range history {
		if r, ok := reqs.resolve(rec); ok {
			counts[r.VaccineID]++
		}
	}
	if len(counts) == 0 {
		return StatusPartiallyVaccinated
	}

	for id, got := range counts {
		if got < reqs.byID[id].Doses {
			return StatusPartiallyVaccinated
		}
	}
	return StatusFullyVaccinated
}
