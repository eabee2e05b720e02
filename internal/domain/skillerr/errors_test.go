package skillerr_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

func TestKinds_MatchSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
		is   error
	}{
		{"validation", skillerr.Validation("amount", "required"), "validation", skillerr.ErrValidation},
		{"data not found", skillerr.DataNotFound("rates", fs.ErrNotExist, "missing"), "data_not_found", skillerr.ErrDataNotFound},
		{"range", skillerr.Range("ppm", -1, skillerr.Bound(0), nil), "range", skillerr.ErrRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("failed to evaluate: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.is)
			assert.Equal(t, tt.kind, skillerr.Kind(wrapped))
		})
	}
}

func TestKind_Unknown(t *testing.T) {
	assert.Empty(t, skillerr.Kind(errors.New("boom")))
	assert.Empty(t, skillerr.Kind(nil))
}

func TestValidationError_NamesField(t *testing.T) {
	err := fmt.Errorf("wrap: %w", skillerr.Validation("currency", "must be %d letters", 3))

	var verr *skillerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "currency", verr.Field)
	assert.Contains(t, err.Error(), "must be 3 letters")
}

func TestDataNotFoundError_UnwrapsCause(t *testing.T) {
	err := skillerr.DataNotFound("country_risk", fs.ErrNotExist, "cannot open")

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, skillerr.ErrDataNotFound)
	assert.Contains(t, err.Error(), "country_risk")
}

func TestRangeError_Message(t *testing.T) {
	assert.Equal(t, "x = 5 is outside [0, 1]", skillerr.Range("x", 5, skillerr.Bound(0), skillerr.Bound(1)).Error())
	assert.Equal(t, "x = -2 is below 0", skillerr.Range("x", -2, skillerr.Bound(0), nil).Error())
	assert.Equal(t, "x = 7 is above 3", skillerr.Range("x", 7, nil, skillerr.Bound(3)).Error())
}
