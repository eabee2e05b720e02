package chemical_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/service"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/internal/skills/chemical"
)

func evaluate(t *testing.T, input string) (*service.Outcome, error) {
	t.Helper()
	s := chemical.New()
	rec, err := record.FromJSON(strings.NewReader(input))
	require.NoError(t, err)

	calc := service.NewCalculator(refdata.NewLoader(refdata.EmbeddedSource{chemical.Name: s.Tables()}))
	return calc.Evaluate(context.Background(), s, rec)
}

func mustEvaluate(t *testing.T, input string) *service.Outcome {
	t.Helper()
	out, err := evaluate(t, input)
	require.NoError(t, err)
	return out
}

func TestTolueneOverLimit(t *testing.T) {
	out := mustEvaluate(t, `{"cas_number":"108-88-3","concentration_ppm":50}`)

	o := out.Output
	assert.Equal(t, "toluene", o.String("chemical_name"))
	assert.InDelta(t, 35.0, o.Float("twa_exposure_ppm"), 1e-9)
	assert.InDelta(t, 1.75, o.Float("exposure_ratio"), 1e-9)
	assert.InDelta(t, 175.0, o.Float("percent_of_limit"), 1e-9)
	assert.Equal(t, "warning", o.String("hazard_level"))
	assert.False(t, o.Bool("stel_exceeded"))
	assert.True(t, o.Bool("flammability_risk"))
	assert.False(t, o.Bool("compliant"))
	assert.Equal(t, []string{
		"toluene 8-hour TWA exposure is 175% of the limit",
		"toluene is stored at or above its flash point",
	}, o.Strings("violations"))
	assert.Equal(t, o.Strings("violations"), out.Alerts)
	assert.Equal(t, []string{
		"Install local exhaust ventilation at the source",
		"Enrol exposed workers in medical surveillance",
		"Store below the flash point away from ignition sources",
	}, o.Strings("required_controls"))
}

func TestRespiratorBringsExposureWithinLimit(t *testing.T) {
	o := mustEvaluate(t, `{
		"cas_number": "108-88-3",
		"concentration_ppm": 50,
		"ppe": ["gloves", "half_face_respirator"],
		"storage_temperature_c": 2
	}`).Output

	assert.InDelta(t, 0.175, o.Float("exposure_ratio"), 1e-9)
	assert.Equal(t, "safe", o.String("hazard_level"))
	assert.True(t, o.Bool("compliant"))
	assert.Equal(t, []string{}, o.Strings("violations"))
	assert.Equal(t, []string{}, o.Strings("required_controls"))
}

func TestHazardLevels(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		level   string
		percent float64
	}{
		{
			name:    "ratio exactly 0.5 is caution",
			input:   `{"cas_number":"67-64-1","concentration_ppm":250,"ventilation":"none","exposure_hours":4,"storage_temperature_c":-30}`,
			level:   "caution",
			percent: 50,
		},
		{
			name:    "percent of limit is capped",
			input:   `{"cas_number":"71-43-2","concentration_ppm":100,"ventilation":"none"}`,
			level:   "danger",
			percent: 1000,
		},
		{
			name:    "idlh overrides the ratio ladder",
			input:   `{"cas_number":"7782-50-5","concentration_ppm":20,"ventilation":"none","ppe":["scba"]}`,
			level:   chemical.LevelImmediatelyDangerous,
			percent: 0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := mustEvaluate(t, tt.input).Output
			assert.Equal(t, tt.level, o.String("hazard_level"))
			assert.InDelta(t, tt.percent, o.Float("percent_of_limit"), 1e-9)
		})
	}
}

func TestIDLHControls(t *testing.T) {
	o := mustEvaluate(t, `{"cas_number":"7782-50-5","concentration_ppm":20,"ventilation":"none","ppe":["scba"]}`).Output

	assert.True(t, o.Bool("idlh_exceeded"))
	assert.False(t, o.Bool("stel_exceeded"))
	assert.False(t, o.Bool("compliant"))
	assert.Equal(t, []string{
		"Evacuate the area; re-entry only with SCBA",
		"Post IDLH warnings and establish a rescue standby",
	}, o.Strings("required_controls"))
}

func TestIncompatibleStorageIsSymmetric(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{
			input: `{"cas_number":"7782-50-5","concentration_ppm":0.2,"ventilation":"local_exhaust","co_stored_cas":["7664-41-7"]}`,
			want:  "chlorine stored with ammonia: forms toxic chloramine gas",
		},
		{
			input: `{"cas_number":"7664-41-7","concentration_ppm":1,"co_stored_cas":["7782-50-5"]}`,
			want:  "ammonia stored with chlorine: forms toxic chloramine gas",
		},
	}

	for _, tt := range tests {
		o := mustEvaluate(t, tt.input).Output
		assert.Equal(t, []string{tt.want}, o.Strings("violations"))
		assert.False(t, o.Bool("compliant"))
		assert.Equal(t, "safe", o.String("hazard_level"))
		assert.Equal(t, []string{"Segregate incompatible chemicals into separate storage"}, o.Strings("required_controls"))
	}
}

func TestNegativeConcentrationIsRangeError(t *testing.T) {
	_, err := evaluate(t, `{"cas_number":"108-88-3","concentration_ppm":-1}`)

	var rerr *skillerr.RangeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "concentration_ppm", rerr.Field)
	assert.ErrorIs(t, err, skillerr.ErrRange)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"malformed cas", `{"cas_number":"toluene","concentration_ppm":1}`, "cas_number"},
		{"unknown cas", `{"cas_number":"999-99-9","concentration_ppm":1}`, "cas_number"},
		{"zero hours", `{"cas_number":"108-88-3","concentration_ppm":1,"exposure_hours":0}`, "exposure_hours"},
		{"too many hours", `{"cas_number":"108-88-3","concentration_ppm":1,"exposure_hours":25}`, "exposure_hours"},
		{"unknown ventilation", `{"cas_number":"108-88-3","concentration_ppm":1,"ventilation":"window"}`, "ventilation"},
		{"unknown ppe", `{"cas_number":"108-88-3","concentration_ppm":1,"ppe":["cape"]}`, "ppe"},
		{"malformed co-stored", `{"cas_number":"108-88-3","concentration_ppm":1,"co_stored_cas":["x"]}`, "co_stored_cas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evaluate(t, tt.input)
			var verr *skillerr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
