package dashboard

import (
	"sync"

	"github.com/vaxtrack/vaxtrack/internal/domain/patient"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// ---------------------------------------------------------------------------
// Statistics snapshot types
// ---------------------------------------------------------------------------

// ManufacturerDoses is the cumulative dose count administered under one
// vaccine name. Entries are unique by name.
type ManufacturerDoses struct {
	Name  string `json:"name"`
	Doses int    `json:"doses"`
}

// AgeGroupStats is the vaccination coverage of one age bucket. Vaccinated
// counts patients with at least one dose.
type AgeGroupStats struct {
	Vaccinated int `json:"vaccinated"`
	Total      int `json:"total"`
}

// Statistics is the dashboard's derived view over registry and catalog. It
// is a cache, not a source of truth: it must always equal a from-scratch
// recomputation over the current registry and catalog.
type Statistics struct {
	TotalPatients          int                      `json:"total_patients"`
	TotalDosesAdministered int                      `json:"total_doses_administered"`
	FullyVaccinatedCount   int                      `json:"fully_vaccinated_count"`
	DosesByManufacturer    []ManufacturerDoses      `json:"doses_by_manufacturer"`
	VaccinationsByAgeGroup map[string]AgeGroupStats `json:"vaccinations_by_age_group"`
}

// AgeBuckets lists the dashboard's age-group labels in display order.
var AgeBuckets = []string{"0-17", "18-29", "30-44", "45-59", "60+"}

// AgeBucket maps an age to its dashboard bucket label.
func AgeBucket(age int) string {
	switch {
	case age < 18:
		return "0-17"
	case age < 30:
		return "18-29"
	case age < 45:
		return "30-44"
	case age < 60:
		return "45-59"
	default:
		return "60+"
	}
}

// ---------------------------------------------------------------------------
// Aggregator — incremental statistics maintenance
// ---------------------------------------------------------------------------

// Aggregator maintains Statistics incrementally as the registry and catalog
// mutate. All methods are safe for concurrent use; the dashboard service
// additionally serializes whole mutations so counter updates never observe
// a half-applied operation.
type Aggregator struct {
	mu             sync.RWMutex
	totalPatients  int
	totalDoses     int
	fullyCount     int
	dosesByName    map[string]int
	nameOrder      []string // preserve insertion order for stable output
	ageGroups      map[string]AgeGroupStats
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		dosesByName: make(map[string]int),
		ageGroups:   make(map[string]AgeGroupStats),
	}
}

// OnPatientAdded records a newly registered patient. Patients normally
// arrive with an empty history; any history they do carry (bootstrap data)
// is folded in so the snapshot stays equal to a from-scratch recomputation.
func (a *Aggregator) OnPatientAdded(p *patient.Patient) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.admitPatient(p)
}

func (a *Aggregator) admitPatient(p *patient.Patient) {
	a.totalPatients++
	if p.Status == patient.StatusFullyVaccinated {
		a.fullyCount++
	}

	bucket := AgeBucket(p.Age)
	ag := a.ageGroups[bucket]
	ag.Total++
	if p.Status != patient.StatusNotVaccinated {
		ag.Vaccinated++
	}
	a.ageGroups[bucket] = ag

	for _, rec := range p.History {
		a.totalDoses++
		a.countDose(rec.VaccineName)
	}
}

// OnVaccineAdded ensures a zero-dose manufacturer entry exists for the
// vaccine's name. Re-adding a name leaves the existing entry unchanged.
func (a *Aggregator) OnVaccineAdded(v *vaccine.Vaccine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureName(v.Name)
}

// OnDoseAdministered records one administered dose and the patient's status
// transition. FullyVaccinatedCount increments only on a not-fully to fully
// transition, so repeated doses after completion never double-count.
func (a *Aggregator) OnDoseAdministered(vaccineName string, age int, prev, next patient.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalDoses++
	a.countDose(vaccineName)

	if prev != patient.StatusFullyVaccinated && next == patient.StatusFullyVaccinated {
		a.fullyCount++
	}
	if prev == patient.StatusNotVaccinated && next != patient.StatusNotVaccinated {
		bucket := AgeBucket(age)
		ag := a.ageGroups[bucket]
		ag.Vaccinated++
		a.ageGroups[bucket] = ag
	}
}

func (a *Aggregator) ensureName(name string) {
	if _, ok := a.dosesByName[name]; !ok {
		a.dosesByName[name] = 0
		a.nameOrder = append(a.nameOrder, name)
	}
}

func (a *Aggregator) countDose(name string) {
	a.ensureName(name)
	a.dosesByName[name]++
}

// Snapshot returns a deep copy of the current statistics.
func (a *Aggregator) Snapshot() Statistics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Statistics{
		TotalPatients:          a.totalPatients,
		TotalDosesAdministered: a.totalDoses,
		FullyVaccinatedCount:   a.fullyCount,
		DosesByManufacturer:    make([]ManufacturerDoses, 0, len(a.nameOrder)),
		VaccinationsByAgeGroup: make(map[string]AgeGroupStats, len(a.ageGroups)),
	}
	for _, name := range a.nameOrder {
		stats.DosesByManufacturer = append(stats.DosesByManufacturer, ManufacturerDoses{Name: name, Doses: a.dosesByName[name]})
	}
	for bucket, ag := range a.ageGroups {
		stats.VaccinationsByAgeGroup[bucket] = ag
	}
	return stats
}

// Reload rebuilds the aggregator's state from scratch over the given
// registry and catalog, discarding whatever it held before.
func (a *Aggregator) Reload(patients []*patient.Patient, vaccines []*vaccine.Vaccine) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalPatients = 0
	a.totalDoses = 0
	a.fullyCount = 0
	a.dosesByName = make(map[string]int)
	a.nameOrder = nil
	a.ageGroups = make(map[string]AgeGroupStats)

	for _, v := range vaccines {
		a.ensureName(v.Name)
	}
	for _, p := range patients {
		a.admitPatient(p)
	}
}

// Recompute derives Statistics from scratch over a registry and catalog.
// The incremental aggregator must always agree with this function; the
// equivalence is the central correctness property of the dashboard.
func Recompute(patients []*patient.Patient, vaccines []*vaccine.Vaccine) Statistics {
	agg := NewAggregator()
	agg.Reload(patients, vaccines)
	return agg.Snapshot()
}
