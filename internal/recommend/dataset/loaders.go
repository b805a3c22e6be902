// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package dataset

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/recommend"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Accepted header names, current name first.
var (
	userIndexColumns = []string{"user_index"}
	itemIndexColumns = []string{"item_index", "template_index"}
	itemNameColumns  = []string{"item_name", "template_name"}
	selectedColumns  = []string{"is_selected"}
	userKeyColumns   = []string{"user_key", "id_for_vendor"}
)

// LoadInteractions reads an interactions CSV with a
// user_index,item_index,is_selected header. Rows may come in any order.
func LoadInteractions(r io.Reader) (*recommend.Dataset, error) {
	records, cols, err := readCSV(r, userIndexColumns, itemIndexColumns, selectedColumns)
	if err != nil {
		return nil, err
	}

	interactions := make([]recommend.Interaction, 0, len(records))
	for i, rec := range records {
		line := i + 2
		user, err := strconv.Atoi(strings.TrimSpace(rec[cols[0]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: user index: %w", line, err)
		}
		item, err := strconv.Atoi(strings.TrimSpace(rec[cols[1]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: item index: %w", line, err)
		}
		sel, err := parseSelected(rec[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		label := recommend.LabelShown
		if sel {
			label = recommend.LabelSelected
		}
		interactions = append(interactions, recommend.Interaction{UserID: user, ItemID: item, Label: label})
	}

	return recommend.NewDataset(interactions)
}

// LoadEvents reads a raw event CSV with an id_for_vendor,template_name,is_selected
// header (user_key and item_name are accepted too) for Preprocess.
func LoadEvents(r io.Reader) ([]Event, error) {
	records, cols, err := readCSV(r, userKeyColumns, itemNameColumns, selectedColumns)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(records))
	for i, rec := range records {
		sel, err := parseSelected(rec[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		events = append(events, Event{
			UserKey:  strings.TrimSpace(rec[cols[0]]),
			ItemName: strings.TrimSpace(rec[cols[1]]),
			Selected: sel,
		})
	}
	return events, nil
}

// LoadItemNames reads an item map CSV with an item_index,item_name header and
// returns the names indexed by item. Missing indices get empty names.
func LoadItemNames(r io.Reader) ([]string, error) {
	records, cols, err := readCSV(r, itemIndexColumns, itemNameColumns)
	if err != nil {
		return nil, err
	}

	var names []string
	for i, rec := range records {
		idx, err := strconv.Atoi(strings.TrimSpace(rec[cols[0]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: item index: %w", i+2, err)
		}
		if idx < 0 {
			return nil, fmt.Errorf("line %d: item %d: %w", i+2, idx, recommend.ErrInvalidIndex)
		}
		if idx >= len(names) {
			names = append(names, make([]string, idx+1-len(names))...)
		}
		names[idx] = strings.TrimSpace(rec[cols[1]])
	}
	return names, nil
}

// categoryEntry is one item of a categories JSON document.
type categoryEntry struct {
	Configuration         string `json:"configuration"`
	JSONConfigurationName string `json:"jsonConfigurationName"`
	TemplateCategories    []any  `json:"templateCategories"`
}

// LoadCategories reads a categories JSON document of the form
//
//	[{"configuration": "name", "templateCategories": [1, "2"]}]
//
// and returns category IDs by item name. Category IDs may be strings or
// numbers. Entries without a name are skipped.
func LoadCategories(r io.Reader) (map[string][]string, error) {
	var entries []categoryEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		name := e.Configuration
		if name == "" {
			name = e.JSONConfigurationName
		}
		if name == "" {
			continue
		}
		cats := make([]string, 0, len(e.TemplateCategories))
		for _, c := range e.TemplateCategories {
			switch v := c.(type) {
			case string:
				cats = append(cats, v)
			case float64:
				cats = append(cats, strconv.FormatFloat(v, 'f', -1, 64))
			default:
				return nil, fmt.Errorf("item %q: unsupported category value %v", name, c)
			}
		}
		out[name] = cats
	}
	return out, nil
}

// WriteSimilarities writes one CSV row per item: the item name followed by
// its similarity to every item.
func WriteSimilarities(w io.Writer, names []string, sim mat.Matrix) error {
	r, c := sim.Dims()
	if r != c || r != len(names) {
		return fmt.Errorf("similarity matrix %dx%d for %d names: %w", r, c, len(names), recommend.ErrMisaligned)
	}

	cw := csv.NewWriter(w)
	row := make([]string, c+1)
	for i := 0; i < r; i++ {
		row[0] = names[i]
		for j := 0; j < c; j++ {
			row[j+1] = strconv.FormatFloat(sim.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadInteractionsFile opens path and calls LoadInteractions.
func LoadInteractionsFile(path string) (*recommend.Dataset, error) {
	return withFile(path, LoadInteractions)
}

// LoadEventsFile opens path and calls LoadEvents.
func LoadEventsFile(path string) ([]Event, error) {
	return withFile(path, LoadEvents)
}

// LoadItemNamesFile opens path and calls LoadItemNames.
func LoadItemNamesFile(path string) ([]string, error) {
	return withFile(path, LoadItemNames)
}

// LoadCategoriesFile opens path and calls LoadCategories.
func LoadCategoriesFile(path string) (map[string][]string, error) {
	return withFile(path, LoadCategories)
}

// withFile opens path, decompressing it when it ends in .gz, and hands the
// reader to load.
func withFile[T any](path string, load func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return zero, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return zero, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	v, err := load(r)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// readCSV reads a CSV with a header row and resolves one column per
// alternatives list.
func readCSV(r io.Reader, columns ...[]string) ([][]string, []int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty file: %w", ErrMissingColumn)
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]int, len(columns))
	for i, alternatives := range columns {
		cols[i] = columnIndex(header, alternatives)
		if cols[i] < 0 {
			return nil, nil, fmt.Errorf("%s: %w", strings.Join(alternatives, "|"), ErrMissingColumn)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	for i, rec := range records {
		for _, c := range cols {
			if c >= len(rec) {
				return nil, nil, fmt.Errorf("line %d: expected at least %d fields, got %d", i+2, c+1, len(rec))
			}
		}
	}
	return records, cols, nil
}

func columnIndex(header, alternatives []string) int {
	for _, want := range alternatives {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), want) {
				return i
			}
		}
	}
	return -1
}

// parseSelected accepts 0/1 and the boolean spellings of strconv.ParseBool.
func parseSelected(s string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("is_selected %q: %w", s, err)
	}
	return v, nil
}
