package usecase

import (
	"context"

	"github.com/bibbank/skills/internal/application/dto"
	"github.com/bibbank/skills/internal/domain/skill"
)

// ListSkills is the use case for listing the catalog.
type ListSkills struct {
	catalog *skill.Catalog
}

// NewListSkills creates a new ListSkills use case.
func NewListSkills(catalog *skill.Catalog) *ListSkills {
	return &ListSkills{catalog: catalog}
}

// Execute returns every skill sorted by name.
func (uc *ListSkills) Execute(_ context.Context) []dto.SkillSummary {
	descriptors := uc.catalog.Descriptors()
	out := make([]dto.SkillSummary, len(descriptors))
	for i, d := range descriptors {
		out[i] = dto.SummaryFromDescriptor(d)
	}
	return out
}

// DescribeSkill is the use case for documenting one skill.
type DescribeSkill struct {
	catalog *skill.Catalog
}

// NewDescribeSkill creates a new DescribeSkill use case.
func NewDescribeSkill(catalog *skill.Catalog) *DescribeSkill {
	return &DescribeSkill{catalog: catalog}
}

// Execute returns the documented interface of the named skill.
func (uc *DescribeSkill) Execute(_ context.Context, name string) (dto.SkillDescription, error) {
	s, err := uc.catalog.Get(name)
	if err != nil {
		return dto.SkillDescription{}, err
	}
	return dto.DescriptionFromDescriptor(s.Descriptor()), nil
}
