package skills_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/skills"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := skills.Default()
	require.NoError(t, err)

	var names []string
	for _, d := range c.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"aml-transaction-validator",
		"chemical-exposure-safety",
		"customer-churn-risk",
		"cyber-insurance-premium",
		"supplier-risk",
	}, names)

	_, err = c.Get("payroll")
	assert.ErrorIs(t, err, skill.ErrSkillNotFound)
}

func TestEmbeddedTablesLoad(t *testing.T) {
	c, err := skills.Default()
	require.NoError(t, err)
	loader := refdata.NewLoader(c.EmbeddedTables())

	for _, s := range c.List() {
		d := s.Descriptor()
		t.Run(d.Name, func(t *testing.T) {
			set, err := loader.Load(context.Background(), d.Name, d.Tables)
			require.NoError(t, err)
			assert.ElementsMatch(t, d.TableNames(), set.Names())

			for _, ts := range d.Tables {
				_, err := fs.Stat(s.Tables(), ts.File())
				assert.NoError(t, err, ts.File())
			}
		})
	}
}
