package vaccine

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a vaccine by platform technology.
type Category string

const (
	CategoryMRNA        Category = "mRNA"
	CategoryViralVector Category = "Viral Vector"
	CategoryInactivated Category = "Inactivated Virus"
)

var validCategories = map[Category]bool{
	CategoryMRNA:        true,
	CategoryViralVector: true,
	CategoryInactivated: true,
}

// ValidCategory reports whether c is one of the supported vaccine categories.
func ValidCategory(c Category) bool { return validCategories[c] }

// Vaccine is a catalog entry for one vaccine product. Stock decrements by
// exactly one per administered dose and never goes negative.
type Vaccine struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Manufacturer  string    `json:"manufacturer"`
	Category      Category  `json:"category"`
	DosesRequired int       `json:"doses_required"`
	EfficacyPct   float64   `json:"efficacy_pct"`
	InStock       int       `json:"in_stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
