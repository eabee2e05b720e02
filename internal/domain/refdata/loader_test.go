package refdata_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

var tierSchema = refdata.TableSchema{
	Name:   "tiers",
	Format: refdata.FormatCSV,
	Columns: []refdata.Column{
		{Name: "tier"},
		{Name: "min_score", Numeric: true},
		{Name: "cap", Numeric: true, Optional: true},
	},
}

func TestParse_CSV(t *testing.T) {
	data := []byte("# severity tiers\ntier,min_score,cap\nlow,0,\nhigh, 60 ,100\n")

	table, err := refdata.Parse(tierSchema, data)
	require.NoError(t, err)

	assert.Equal(t, "tiers", table.Name())
	assert.Equal(t, []string{"tier", "min_score", "cap"}, table.Columns())
	require.Equal(t, 2, table.Len())

	high, ok := table.Lookup("tier", "HIGH")
	require.True(t, ok)
	assert.InDelta(t, 60.0, high.Float("min_score"), 1e-9)
	assert.True(t, high.Has("cap"))

	low, _ := table.Lookup("tier", "low")
	assert.False(t, low.Has("cap"))
	assert.Zero(t, low.Float("cap"))
}

func TestParse_JSON(t *testing.T) {
	schema := refdata.TableSchema{
		Name:    "pairs",
		Format:  refdata.FormatJSON,
		Columns: []refdata.Column{{Name: "a"}, {Name: "b"}, {Name: "weight", Numeric: true}},
	}
	data := []byte(`[{"a":"x","b":"y","weight":0.25},{"a":"y","b":"z","weight":1,"note":"extra"}]`)

	table, err := refdata.Parse(schema, data)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	rows := table.Filter("a", "y")
	require.Len(t, rows, 1)
	assert.Equal(t, "z", rows[0].String("b"))
	assert.Equal(t, "extra", rows[0].String("note"))
	assert.InDelta(t, 0.25, table.Rows()[0].Float("weight"), 1e-9)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty file", ""},
		{"header only", "tier,min_score,cap\n"},
		{"missing column", "tier,cap\nlow,1\n"},
		{"non numeric", "tier,min_score,cap\nlow,zero,\n"},
		{"nan", "tier,min_score,cap\nlow,NaN,\n"},
		{"infinity", "tier,min_score,cap\nlow,0,Inf\nhigh,Infinity,\n"},
		{"blank required numeric", "tier,min_score,cap\nlow,,\n"},
		{"ragged row", "tier,min_score,cap\nlow,0\n"},
		{"duplicate column", "tier,min_score,cap,tier\nlow,0,,x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := refdata.Parse(tierSchema, []byte(tt.data))
			require.Error(t, err)

			var derr *skillerr.DataNotFoundError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "tiers", derr.Table)
		})
	}
}

func TestTable_Param(t *testing.T) {
	schema := refdata.TableSchema{Name: "params", Columns: []refdata.Column{{Name: "parameter"}, {Name: "value", Numeric: true}}}
	table, err := refdata.Parse(schema, []byte("parameter,value\nctr_threshold,10000\n"))
	require.NoError(t, err)

	v, err := table.Param("ctr_threshold")
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, v, 1e-9)

	_, err = table.Param("missing")
	assert.ErrorIs(t, err, skillerr.ErrDataNotFound)
}

func TestLoader_Load(t *testing.T) {
	embedded := refdata.EmbeddedSource{
		"demo": fstest.MapFS{"tiers.csv": {Data: []byte("tier,min_score,cap\nlow,0,\n")}},
	}
	override := refdata.NewDirSource(fstest.MapFS{
		"demo/tiers.csv": {Data: []byte("tier,min_score,cap\nlow,5,\n")},
	})

	t.Run("embedded", func(t *testing.T) {
		set, err := refdata.NewLoader(embedded).Load(context.Background(), "demo", []refdata.TableSchema{tierSchema})
		require.NoError(t, err)

		table, err := set.Table("tiers")
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("override wins", func(t *testing.T) {
		src := refdata.FallbackSource{override, embedded}
		set, err := refdata.NewLoader(src).Load(context.Background(), "demo", []refdata.TableSchema{tierSchema})
		require.NoError(t, err)

		table, _ := set.Table("tiers")
		assert.InDelta(t, 5.0, table.Rows()[0].Float("min_score"), 1e-9)
	})

	t.Run("unknown table", func(t *testing.T) {
		schemas := []refdata.TableSchema{tierSchema, {Name: "weights"}}
		_, err := refdata.NewLoader(embedded).Load(context.Background(), "demo", schemas)

		var derr *skillerr.DataNotFoundError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "weights", derr.Table)
		assert.ErrorIs(t, err, refdata.ErrTableNotFound)
	})

	t.Run("unknown skill", func(t *testing.T) {
		_, err := refdata.NewLoader(embedded).Load(context.Background(), "other", []refdata.TableSchema{tierSchema})
		assert.ErrorIs(t, err, skillerr.ErrDataNotFound)
	})

	t.Run("table not loaded", func(t *testing.T) {
		set, err := refdata.NewLoader(embedded).Load(context.Background(), "demo", []refdata.TableSchema{tierSchema})
		require.NoError(t, err)

		_, err = set.Table("weights")
		assert.ErrorIs(t, err, skillerr.ErrDataNotFound)
	})
}

type failingSource struct{}

func (failingSource) Open(context.Context, refdata.TableRef) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestFallbackSource_StopsOnHardError(t *testing.T) {
	src := refdata.FallbackSource{failingSource{}, refdata.EmbeddedSource{}}
	_, err := src.Open(context.Background(), refdata.TableRef{Skill: "demo", Table: "tiers"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, refdata.ErrTableNotFound)
}
