// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/seen/internal/recommend"
)

// ErrNoEvents is returned when preprocessing leaves no interactions.
var ErrNoEvents = errors.New("no events left after preprocessing")

// Event is a raw preview event keyed by external identifiers.
type Event struct {
	UserKey  string
	ItemName string
	Selected bool
}

// Options controls Preprocess.
type Options struct {
	// MinPreviews drops users with fewer distinct previewed items.
	MinPreviews int

	// ItemFilter keeps only items for which it returns true. Nil keeps all.
	ItemFilter func(name string) bool
}

// Stats summarizes a preprocessing run.
type Stats struct {
	Events        int `json:"events"`
	Duplicates    int `json:"duplicates"`
	FilteredItems int `json:"filtered_items"`
	FilteredUsers int `json:"filtered_users"`
	Interactions  int `json:"interactions"`
}

// Result is the output of Preprocess.
type Result struct {
	Data *recommend.Dataset

	// Users maps dense user indices back to user keys.
	Users []string

	// Items maps dense item indices back to item names.
	Items []string

	Stats Stats
}

// Preprocess turns raw events into a dense-index dataset.
//
// Duplicate (user, item) events collapse into one interaction that is
// selected if any of them was. Users with fewer than MinPreviews distinct
// items are dropped. Users and items get dense indices in sorted key order,
// and the interactions are ordered by user index then item index.
func Preprocess(events []Event, opts Options) (*Result, error) {
	if opts.MinPreviews < 0 {
		return nil, fmt.Errorf("min previews must be non-negative, got %d", opts.MinPreviews)
	}

	stats := Stats{Events: len(events)}

	type pair struct{ user, item string }
	selected := make(map[pair]bool, len(events))
	perUser := make(map[string]int)
	for _, ev := range events {
		if opts.ItemFilter != nil && !opts.ItemFilter(ev.ItemName) {
			stats.FilteredItems++
			continue
		}
		p := pair{ev.UserKey, ev.ItemName}
		prev, dup := selected[p]
		if dup {
			stats.Duplicates++
		} else {
			perUser[ev.UserKey]++
		}
		selected[p] = prev || ev.Selected
	}

	userIndex := make(map[string]int)
	var users []string
	for user, n := range perUser {
		if n < opts.MinPreviews {
			stats.FilteredUsers++
			continue
		}
		users = append(users, user)
	}
	sort.Strings(users)
	for i, u := range users {
		userIndex[u] = i
	}

	itemSet := make(map[string]struct{})
	for p := range selected {
		if _, ok := userIndex[p.user]; ok {
			itemSet[p.item] = struct{}{}
		}
	}
	items := make([]string, 0, len(itemSet))
	for name := range itemSet {
		items = append(items, name)
	}
	sort.Strings(items)
	itemIndex := make(map[string]int, len(items))
	for i, name := range items {
		itemIndex[name] = i
	}

	interactions := make([]recommend.Interaction, 0, len(selected))
	for p, sel := range selected {
		u, ok := userIndex[p.user]
		if !ok {
			continue
		}
		label := recommend.LabelShown
		if sel {
			label = recommend.LabelSelected
		}
		interactions = append(interactions, recommend.Interaction{UserID: u, ItemID: itemIndex[p.item], Label: label})
	}
	if len(interactions) == 0 {
		return nil, ErrNoEvents
	}
	sort.Slice(interactions, func(a, b int) bool {
		if interactions[a].UserID != interactions[b].UserID {
			return interactions[a].UserID < interactions[b].UserID
		}
		return interactions[a].ItemID < interactions[b].ItemID
	})

	data, err := recommend.NewDataset(interactions)
	if err != nil {
		return nil, err
	}
	stats.Interactions = data.Len()

	return &Result{Data: data, Users: users, Items: items, Stats: stats}, nil
}

// VariantFilter keeps item names whose variant suffix, the part after the
// last "-", is one of variants. A name without "-" is its own suffix. An
// empty variants list keeps everything.
func VariantFilter(variants ...string) func(string) bool {
	if len(variants) == 0 {
		return func(string) bool { return true }
	}
	allowed := variantSet(variants)
	return func(name string) bool {
		_, ok := allowed[variantOf(name)]
		return ok
	}
}

// ExcludeVariants keeps item names whose variant suffix is not one of
// variants, i.e. the base catalogue when variants lists the localized ones.
func ExcludeVariants(variants ...string) func(string) bool {
	denied := variantSet(variants)
	return func(name string) bool {
		_, ok := denied[variantOf(name)]
		return !ok
	}
}

func variantOf(name string) string {
	return name[strings.LastIndex(name, "-")+1:]
}

func variantSet(variants []string) map[string]struct{} {
	set := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		set[v] = struct{}{}
	}
	return set
}
