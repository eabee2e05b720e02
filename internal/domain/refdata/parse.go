package refdata

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Parse decodes raw table content and checks it against schema.
// Any structural problem is reported as a DataNotFoundError.
func Parse(schema TableSchema, data []byte) (*Table, error) {
	var (
		header []string
		cells  [][]string
		err    error
	)

	switch schema.Format {
	case FormatJSON:
		header, cells, err = decodeJSON(data)
	case FormatCSV, "":
		header, cells, err = decodeCSV(data)
	default:
		return nil, skillerr.DataNotFound(schema.Name, nil, "unsupported format %q", schema.Format)
	}
	if err != nil {
		return nil, skillerr.DataNotFound(schema.Name, err, "malformed table")
	}
	if len(cells) == 0 {
		return nil, skillerr.DataNotFound(schema.Name, nil, "table has no rows")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; dup {
			return nil, skillerr.DataNotFound(schema.Name, nil, "duplicate column %q", h)
		}
		index[h] = i
	}
	for _, c := range schema.Columns {
		if _, ok := index[c.Name]; !ok {
			return nil, skillerr.DataNotFound(schema.Name, nil, "missing column %q", c.Name)
		}
	}

	t := &Table{name: schema.Name, columns: header, rows: make([]Row, 0, len(cells))}
	for n, line := range cells {
		row := Row{
			table:  schema.Name,
			values: make(map[string]string, len(header)),
			nums:   make(map[string]float64),
		}
		for i, h := range header {
			if i < len(line) {
				row.values[h] = strings.TrimSpace(line[i])
			}
		}
		for _, c := range schema.Columns {
			if !c.Numeric {
				continue
			}
			cell := row.values[c.Name]
			if cell == "" {
				if c.Optional {
					continue
				}
				return nil, skillerr.DataNotFound(schema.Name, nil, "row %d: column %q is blank", n+1, c.Name)
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, skillerr.DataNotFound(schema.Name, nil, "row %d: column %q is not numeric: %q", n+1, c.Name, cell)
			}
			row.nums[c.Name] = v
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

func decodeCSV(data []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty file")
		}
		return nil, nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return header, rows, nil
}

// decodeJSON accepts an array of flat objects. The header is the union of
// keys in first-seen order.
func decodeJSON(data []byte) ([]string, [][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, nil, err
	}

	var header []string
	seen := map[string]bool{}
	for _, o := range objs {
		keys := make([]string, 0, len(o))
		for k := range o {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	rows := make([][]string, 0, len(objs))
	for i, o := range objs {
		line := make([]string, len(header))
		for j, h := range header {
			v, ok := o[h]
			if !ok || v == nil {
				continue
			}
			switch x := v.(type) {
			case string:
				line[j] = x
			case json.Number:
				line[j] = x.String()
			case bool:
				line[j] = strconv.FormatBool(x)
			default:
				return nil, nil, fmt.Errorf("row %d: column %q is not a scalar", i+1, h)
			}
		}
		rows = append(rows, line)
	}
	return header, rows, nil
}
