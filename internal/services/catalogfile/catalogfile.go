// Package catalogfile reads ingredient and tag seed lists from JSON, YAML or
// CSV files. The format is chosen by file extension.
package catalogfile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pantry-backend/internal/services"
)

var ErrUnknownFormat = errors.New("unknown catalog file format")

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func ReadIngredients(path string) ([]services.IngredientSeed, error) {
	f, data, err := load(path)
	if err != nil {
		return nil, err
	}
	return DecodeIngredients(f, bytes.NewReader(data))
}

func ReadTags(path string) ([]services.TagSeed, error) {
	f, data, err := load(path)
	if err != nil {
		return nil, err
	}
	return DecodeTags(f, bytes.NewReader(data))
}

func load(path string) (Format, []byte, error) {
	f, err := FormatOf(path)
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f, data, nil
}

func DecodeIngredients(f Format, r io.Reader) ([]services.IngredientSeed, error) {
	switch f {
	case FormatCSV:
		rows, err := readCSV(r, []string{"name", "measurement_unit"})
		if err != nil {
			return nil, err
		}
		out := make([]services.IngredientSeed, 0, len(rows))
		for _, row := range rows {
			out = append(out, services.IngredientSeed{Name: row[0], MeasurementUnit: row[1]})
		}
		return out, nil
	default:
		var out []services.IngredientSeed
		if err := decodeStructured(f, r, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func DecodeTags(f Format, r io.Reader) ([]services.TagSeed, error) {
	switch f {
	case FormatCSV:
		rows, err := readCSV(r, []string{"name", "slug", "color"})
		if err != nil {
			return nil, err
		}
		out := make([]services.TagSeed, 0, len(rows))
		for _, row := range rows {
			out = append(out, services.TagSeed{Name: row[0], Slug: row[1], Color: row[2]})
		}
		return out, nil
	default:
		var out []services.TagSeed
		if err := decodeStructured(f, r, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func decodeStructured(f Format, r io.Reader, dst any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return nil
}

// readCSV returns one slice per record, ordered like columns. A first row made
// only of known column names is a header and may reorder or omit columns;
// otherwise records are positional.
func readCSV(r io.Reader, columns []string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make([]int, len(columns))
	for i := range index {
		index[i] = i
	}
	if header, ok := headerIndex(records[0], columns); ok {
		index = header
		records = records[1:]
	}

	out := make([][]string, 0, len(records))
	for n, rec := range records {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make([]string, len(columns))
		for i, at := range index {
			if at >= 0 && at < len(rec) {
				row[i] = strings.TrimSpace(rec[at])
			}
		}
		if row[0] == "" {
			return nil, fmt.Errorf("csv record %d: empty %s", n+1, columns[0])
		}
		out = append(out, row)
	}
	return out, nil
}

func headerIndex(first, columns []string) ([]int, bool) {
	pos := make(map[string]int, len(first))
	for i, name := range first {
		name = strings.ToLower(strings.TrimSpace(name))
		known := false
		for _, c := range columns {
			if c == name {
				known = true
				break
			}
		}
		if !known {
			return nil, false
		}
		pos[name] = i
	}
	if _, ok := pos[columns[0]]; !ok {
		return nil, false
	}
	index := make([]int, len(columns))
	for i, c := range columns {
		if at, ok := pos[c]; ok {
			index[i] = at
		} else {
			index[i] = -1
		}
	}
	return index, true
}
