// Package voices loads and filters the stock voice catalog backing the voice
// gallery. The catalog itself is a static JSON input; this package only
// provides access and filtering.
package voices

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrNoVoices indicates that the catalog file parsed to an empty list.
var ErrNoVoices = errors.New("voice catalog is empty")

// Voice is one stock voice entry.
type Voice struct {
	Name        string `json:"Voice Name"`
	Locale      string `json:"Locale"`
	Gender      string `json:"Gender"`
	AgeGroup    string `json:"Age Group"`
	Description string `json:"Description"`
}

// Filter narrows a catalog. Zero values mean "no constraint".
type Filter struct {
	// Query matches case-insensitively against name and description.
	Query string

	Locales   []string
	Genders   []string
	AgeGroups []string
}

// Load reads the catalog from a JSON array file.
func Load(path string) ([]Voice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice catalog %s: %w", path, err)
	}

	var catalog []Voice

	err = json.Unmarshal(data, &catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to parse voice catalog %s: %w", path, err)
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoVoices, path)
	}

	return catalog, nil
}

// Apply returns the voices matching every constraint, preserving catalog
// order.
func (f Filter) Apply(catalog []Voice) []Voice {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var matched []Voice

	for _, voice := range catalog {
		if query != "" && !matchesQuery(voice, query) {
			continue
		}

		if !matchesSet(voice.Locale, f.Locales) {
			continue
		}

		if !matchesSet(voice.Gender, f.Genders) {
			continue
		}

		if !matchesSet(voice.AgeGroup, f.AgeGroups) {
			continue
		}

		matched = append(matched, voice)
	}

	return matched
}

func matchesQuery(voice Voice, query string) bool {
	return strings.Contains(strings.ToLower(voice.Name), query) ||
		strings.Contains(strings.ToLower(voice.Description), query)
}

func matchesSet(value string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, candidate := range allowed {
		if candidate == value {
			return true
		}
	}

	return false
}

// Locales returns the sorted unique locales in the catalog.
func Locales(catalog []Voice) []string {
	return uniqueSorted(catalog, func(v Voice) string { return v.Locale })
}

// Genders returns the sorted unique genders in the catalog.
func Genders(catalog []Voice) []string {
	return uniqueSorted(catalog, func(v Voice) string { return v.Gender })
}

// AgeGroups returns the sorted unique age groups in the catalog.
func AgeGroups(catalog []Voice) []string {
	return uniqueSorted(catalog, func(v Voice) string { return v.AgeGroup })
}

func uniqueSorted(catalog []Voice, field func(Voice) string) []string {
	seen := make(map[string]struct{}, len(catalog))

	var values []string

	for _, voice := range catalog {
		value := field(voice)
		if _, ok := seen[value]; ok {
			continue
		}

		seen[value] = struct{}{}
		values = append(values, value)
	}

	sort.Strings(values)

	return values
}
