package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

// RequireValidation fails unless err is a ValidationError on field.
func RequireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *skillerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, field, ve.Field)
}

// RequireDataNotFound fails unless err is a DataNotFoundError on table.
func RequireDataNotFound(t *testing.T, err error, table string) {
	t.Helper()
	var de *skillerr.DataNotFoundError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, table, de.Table)
}

// RequireRange fails unless err is a RangeError on field.
func RequireRange(t *testing.T, err error, field string) {
	t.Helper()
	var re *skillerr.RangeError
	require.True(t, errors.As(err, &re), "expected RangeError, got %v", err)
	assert.Equal(t, field, re.Field)
}

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	require.Error(t, err)
	assert.Contains(t, err.Error(), expected)
}
