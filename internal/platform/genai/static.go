package genai

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vaxtrack/vaxtrack/internal/domain/dashboard"
)

// StaticSource fabricates a reproducible snapshot locally. It backs the
// development server when no API key is configured, the seed CLI command,
// and tests.
type StaticSource struct {
	PatientCount int
	Seed         int64
}

func NewStaticSource(patientCount int, seed int64) *StaticSource {
	if patientCount <= 0 {
		patientCount = 12
	}
	return &StaticSource{PatientCount: patientCount, Seed: seed}
}

var staticVaccines = []wireVaccine{
	{Name: "Pfizer-BioNTech", Manufacturer: "Pfizer Inc.", Category: "mRNA", DosesRequired: 2, EfficacyPct: 95.0, InStock: 120},
	{Name: "Moderna", Manufacturer: "Moderna Inc.", Category: "mRNA", DosesRequired: 2, EfficacyPct: 94.1, InStock: 90},
	{Name: "Oxford-AstraZeneca", Manufacturer: "AstraZeneca", Category: "Viral Vector", DosesRequired: 2, EfficacyPct: 76.0, InStock: 60},
	{Name: "Johnson & Johnson", Manufacturer: "Janssen Pharmaceuticals", Category: "Viral Vector", DosesRequired: 1, EfficacyPct: 66.3, InStock: 45},
	{Name: "Sinovac CoronaVac", Manufacturer: "Sinovac Biotech", Category: "Inactivated Virus", DosesRequired: 2, EfficacyPct: 50.7, InStock: 70},
}

var (
	staticFirstNames = []string{
		"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
		"Linda", "David", "Elizabeth", "William", "Barbara", "Richard",
		"Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Daniel", "Karen",
	}
	staticLastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Wilson", "Anderson", "Taylor",
		"Thomas", "Moore", "Jackson", "Martin", "Lee", "Thompson", "White",
	}
	staticGenders = []string{"male", "female"}
)

func (s *StaticSource) Generate(_ context.Context) (*dashboard.Snapshot, error) {
	rng := rand.New(rand.NewSource(s.Seed))
	base := time.Now().AddDate(0, -6, 0)

	wire := wireSnapshot{Vaccines: staticVaccines}
	for i := 0; i < s.PatientCount; i++ {
		p := wirePatient{
			Name:   fmt.Sprintf("%s %s", staticFirstNames[rng.Intn(len(staticFirstNames))], staticLastNames[rng.Intn(len(staticLastNames))]),
			Age:    1 + rng.Intn(90),
			Gender: staticGenders[rng.Intn(len(staticGenders))],
		}
		p.Contact = fmt.Sprintf("+1-555-%04d", rng.Intn(10000))

		doses := rng.Intn(4)
		v := staticVaccines[rng.Intn(len(staticVaccines))]
		for d := 0; d < doses; d++ {
			// A minority of multi-dose patients switch products mid-course.
			if d > 0 && rng.Intn(10) == 0 {
				v = staticVaccines[rng.Intn(len(staticVaccines))]
			}
			date := base.AddDate(0, 0, rng.Intn(150)+d*21)
			p.History = append(p.History, wireRecord{Vaccine: v.Name, Date: date.Format("2006-01-02")})
		}
		wire.Patients = append(wire.Patients, p)
	}

	return buildSnapshot(wire)
}
