// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package dataset

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/recommend"
)

func TestLoadInteractions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []recommend.Interaction
		wantErr error
	}{
		{
			name:  "item_index header",
			input: "user_index,item_index,is_selected\n0,1,1\n0,2,0\n1,0,1\n",
			want: []recommend.Interaction{
				{UserID: 0, ItemID: 1, Label: recommend.LabelSelected},
				{UserID: 0, ItemID: 2, Label: recommend.LabelShown},
				{UserID: 1, ItemID: 0, Label: recommend.LabelSelected},
			},
		},
		{
			name:  "template_index header with reordered columns",
			input: "is_selected,template_index,user_index\nTrue,3,2\nfalse,1,2\n",
			want: []recommend.Interaction{
				{UserID: 2, ItemID: 3, Label: recommend.LabelSelected},
				{UserID: 2, ItemID: 1, Label: recommend.LabelShown},
			},
		},
		{
			name:    "missing column",
			input:   "user_index,is_selected\n0,1\n",
			wantErr: ErrMissingColumn,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: ErrMissingColumn,
		},
		{
			name:    "duplicate pair",
			input:   "user_index,item_index,is_selected\n0,1,1\n0,1,0\n",
			wantErr: recommend.ErrDuplicateInteraction,
		},
		{
			name:    "negative index",
			input:   "user_index,item_index,is_selected\n-1,1,1\n",
			wantErr: recommend.ErrInvalidIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := LoadInteractions(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadInteractions() error = %v", err)
			}
			if got := data.Interactions(); !slices.Equal(got, tt.want) {
				t.Errorf("Interactions() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("bad values", func(t *testing.T) {
		for _, input := range []string{
			"user_index,item_index,is_selected\nx,1,1\n",
			"user_index,item_index,is_selected\n0,y,1\n",
			"user_index,item_index,is_selected\n0,1,maybe\n",
			"user_index,item_index,is_selected\n0,1\n",
		} {
			if _, err := LoadInteractions(strings.NewReader(input)); err == nil {
				t.Errorf("LoadInteractions(%q) expected error", input)
			}
		}
	})
}

func TestLoadEvents(t *testing.T) {
	input := "id_for_vendor,template_name,is_selected,ts\nabc, card-ja ,1,x\nabc,poster,False,y\n"
	events, err := LoadEvents(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []Event{{"abc", "card-ja", true}, {"abc", "poster", false}}
	if !slices.Equal(events, want) {
		t.Errorf("LoadEvents() = %v, want %v", events, want)
	}
}

func TestLoadItemNames(t *testing.T) {
	names, err := LoadItemNames(strings.NewReader("template_index,template_name\n2,poster\n0,card\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(names, []string{"card", "", "poster"}) {
		t.Errorf("LoadItemNames() = %q", names)
	}

	if _, err := LoadItemNames(strings.NewReader("item_index,item_name\n-2,x\n")); !errors.Is(err, recommend.ErrInvalidIndex) {
		t.Errorf("negative index error = %v", err)
	}
}

func TestLoadCategories(t *testing.T) {
	input := `[
		{"configuration": "card", "templateCategories": [1, "22"]},
		{"jsonConfigurationName": "poster", "templateCategories": []},
		{"templateCategories": [5]}
	]`

	cats, err := LoadCategories(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 {
		t.Fatalf("got %d entries, want 2", len(cats))
	}
	if !slices.Equal(cats["card"], []string{"1", "22"}) {
		t.Errorf("card = %v", cats["card"])
	}
	if got, ok := cats["poster"]; !ok || len(got) != 0 {
		t.Errorf("poster = %v, %v", got, ok)
	}

	for _, bad := range []string{`{"configuration": "x"}`, `[{"configuration": "x", "templateCategories": [true]}]`} {
		if _, err := LoadCategories(strings.NewReader(bad)); err == nil {
			t.Errorf("LoadCategories(%s) expected error", bad)
		}
	}
}

func TestWriteSimilarities(t *testing.T) {
	sim := mat.NewDense(2, 2, []float64{1, 0.25, 0.25, 1})

	var buf bytes.Buffer
	if err := WriteSimilarities(&buf, []string{"card", "poster"}, sim); err != nil {
		t.Fatal(err)
	}
	want := "card,1,0.25\nposter,0.25,1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}

	if err := WriteSimilarities(&buf, []string{"card"}, sim); !errors.Is(err, recommend.ErrMisaligned) {
		t.Errorf("misaligned error = %v", err)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	content := "user_index,item_index,is_selected\n0,0,1\n1,1,0\n"

	plain := filepath.Join(dir, "interactions.csv")
	if err := os.WriteFile(plain, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "interactions.csv.gz")
	if err := os.WriteFile(compressed, gz.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, compressed} {
		data, err := LoadInteractionsFile(path)
		if err != nil {
			t.Fatalf("LoadInteractionsFile(%s) error = %v", path, err)
		}
		if data.Len() != 2 || data.NumUsers() != 2 {
			t.Errorf("%s: %d interactions, %d users", path, data.Len(), data.NumUsers())
		}
	}

	if _, err := LoadInteractionsFile(filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}
