// Package skills registers the built-in skill calculators.
package skills

import (
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/skills/aml"
	"github.com/bibbank/skills/internal/skills/chemical"
	"github.com/bibbank/skills/internal/skills/churn"
	"github.com/bibbank/skills/internal/skills/premium"
	"github.com/bibbank/skills/internal/skills/supplier"
)

// All returns every built-in skill.
func All() []skill.Skill {
	return []skill.Skill{
		aml.New(),
		premium.New(),
		churn.New(),
		supplier.New(),
		chemical.New(),
	}
}

// Default returns the catalog of built-in skills.
func Default() (*skill.Catalog, error) {
	return skill.NewCatalog(All()...)
}
