//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/port"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/skills"
	"github.com/bibbank/skills/migrations"
	"github.com/bibbank/skills/pkg/testutil"
)

func TestEvaluationRepository_Integration(t *testing.T) {
	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t, migrations.FS)
	repo := NewEvaluationRepository(pg.Pool)

	e := newEvaluation(t)
	require.NoError(t, repo.Save(ctx, e))
	require.NoError(t, repo.Save(ctx, e), "saving twice upserts")

	got, err := repo.FindByID(ctx, testutil.TestTenantID, e.ID())
	require.NoError(t, err)
	assert.Equal(t, e.Skill(), got.Skill())
	assert.Equal(t, []string{"STRUCTURING_SUSPECTED"}, got.Alerts())
	assert.JSONEq(t, string(e.Output()), string(got.Output()))
	assert.True(t, e.EvaluatedAt().Equal(got.EvaluatedAt()))

	_, err = repo.FindByID(ctx, uuid.New(), e.ID())
	assert.ErrorIs(t, err, port.ErrEvaluationNotFound)

	list, err := repo.ListBySkill(ctx, testutil.TestTenantID, e.Skill(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID(), list[0].ID())
}

func TestTableSource_Integration(t *testing.T) {
	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t, migrations.FS)

	catalog, err := skills.Default()
	require.NoError(t, err)
	schemas := map[string][]refdata.TableSchema{}
	for _, d := range catalog.Descriptors() {
		schemas[d.Name] = d.Tables
	}

	n, err := ProvisionAll(ctx, pg.Pool, catalog.EmbeddedTables(), schemas)
	require.NoError(t, err)
	assert.Positive(t, n)

	loader := refdata.NewLoader(NewTableSource(pg.Pool))
	for _, d := range catalog.Descriptors() {
		_, err := loader.Load(ctx, d.Name, d.Tables)
		assert.NoError(t, err, d.Name)
	}
}
