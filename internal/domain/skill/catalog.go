package skill

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/bibbank/skills/internal/domain/refdata"
)

// ErrSkillNotFound is returned for a name the catalog does not hold.
var ErrSkillNotFound = errors.New("skill not found")

// Catalog is a read-only set of skills once construction is done, so it is
// safe for concurrent use afterwards.
type Catalog struct {
	skills map[string]Skill
}

// NewCatalog registers skills, rejecting nil, invalid and duplicate entries.
func NewCatalog(skills ...Skill) (*Catalog, error) {
	c := &Catalog{skills: make(map[string]Skill, len(skills))}
	for i, s := range skills {
		if s == nil {
			return nil, fmt.Errorf("skill at index %d is nil", i)
		}
		d := s.Descriptor()
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if err := s.Rules().Validate(); err != nil {
			return nil, fmt.Errorf("skill %q: %w", d.Name, err)
		}
		if _, dup := c.skills[d.Name]; dup {
			return nil, fmt.Errorf("skill %q registered twice", d.Name)
		}
		c.skills[d.Name] = s
	}
	return c, nil
}

// Get returns a skill by name.
func (c *Catalog) Get(name string) (Skill, error) {
	s, ok := c.skills[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSkillNotFound, name)
	}
	return s, nil
}

// List returns the skills sorted by name.
func (c *Catalog) List() []Skill {
	out := make([]Skill, 0, len(c.skills))
	for _, s := range c.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Descriptor().Name < out[j].Descriptor().Name
	})
	return out
}

// Descriptors returns the descriptors sorted by skill name.
func (c *Catalog) Descriptors() []Descriptor {
	skills := c.List()
	out := make([]Descriptor, len(skills))
	for i, s := range skills {
		out[i] = s.Descriptor()
	}
	return out
}

// EmbeddedTables returns a table source over every skill's shipped tables.
func (c *Catalog) EmbeddedTables() refdata.EmbeddedSource {
	src := make(refdata.EmbeddedSource, len(c.skills))
	for name, s := range c.skills {
		if fsys := s.Tables(); fsys != nil {
			src[name] = fsys
		}
	}
	return src
}

// Subtree narrows an embedded filesystem to the directory holding the
// tables, for skills embedding "tables/*".
func Subtree(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("skill tables: %v", err))
	}
	return sub
}
