package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), append([]string{"skillctl"}, args...), strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestList(t *testing.T) {
	code, out, _ := run(t, "", "list")
	require.Equal(t, exitOK, code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 5)

	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s["name"].(string))
	}
	assert.Contains(t, names, "aml-transaction-validator")
	assert.Contains(t, names, "chemical-exposure-safety")
}

func TestDescribeYAML(t *testing.T) {
	code, out, _ := run(t, "", "--format", "yaml", "describe", "supplier-risk")
	require.Equal(t, exitOK, code)

	var desc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &desc))
	assert.Equal(t, "supplier-risk", desc["name"])
	assert.NotEmpty(t, desc["inputs"])
}

func TestEval(t *testing.T) {
	input := `{"cas_number":"108-88-3","concentration_ppm":50}`

	t.Run("stdin json", func(t *testing.T) {
		code, out, errOut := run(t, input, "eval", "chemical-exposure-safety")
		require.Equal(t, exitOK, code, errOut)
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "warning", got["hazard_level"])
		assert.Contains(t, errOut, "alert")
	})

	t.Run("file yaml keeps field order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte(input), 0o600))

		code, out, errOut := run(t, "", "--format", "yaml", "eval", "--input", path, "chemical-exposure-safety")
		require.Equal(t, exitOK, code, errOut)

		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte(out), &node))
		mapping := node.Content[0]
		require.Equal(t, yaml.MappingNode, mapping.Kind)
		assert.Equal(t, "chemical_name", mapping.Content[0].Value)
		assert.Equal(t, "toluene", mapping.Content[1].Value)
	})
}

func TestEvalExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
	}{
		{"validation", `{"country":"US"}`, []string{"eval", "supplier-risk"}, exitValidation},
		{"range", `{"cas_number":"108-88-3","concentration_ppm":-1}`, []string{"eval", "chemical-exposure-safety"}, exitRange},
		{"unknown skill", `{}`, []string{"eval", "horoscope"}, exitError},
		{"bad json", `{`, []string{"eval", "supplier-risk"}, exitError},
		{"bad format", ``, []string{"--format", "xml", "list"}, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := run(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestEvalWithExportedTables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "chemical-exposure-safety"), 0o755))
	code, _, errOut := run(t, "", "tables", "export", "--dir", dir, "chemical-exposure-safety")
	require.Equal(t, exitOK, code, errOut)

	entries, err := os.ReadDir(filepath.Join(dir, "chemical-exposure-safety"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	input := `{"cas_number":"108-88-3","concentration_ppm":50}`
	code, _, errOut = run(t, input, "eval", "--tables", dir, "chemical-exposure-safety")
	assert.Equal(t, exitOK, code, errOut)
}

func TestTablesExportAll(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := run(t, "", "tables", "export", "--dir", dir)
	require.Equal(t, exitOK, code, errOut)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Greater(t, got["exported"], float64(20))

	_, err := os.Stat(filepath.Join(dir, "aml-transaction-validator"))
	assert.NoError(t, err)

	code, _, _ = run(t, "", "tables", "export", "--dir", dir, "horoscope")
	assert.Equal(t, exitError, code)
}
