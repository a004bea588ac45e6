// Package featureflags evaluates the operator toggles configured in FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"sort"
	"strings"
)

// Known flags.
const (
	Swagger        = "swagger"
	Metrics        = "metrics"
	SeedCategories = "seed_categories"
)

// Set holds toggles parsed from a comma-separated list such as
// "swagger=off,metrics=on". Flags absent from the list fall back to the
// default supplied by the caller.
type Set struct {
	flags map[string]bool
}

// Parse builds a Set from raw. Empty entries are skipped; an entry without
// "=" or with a value other than on/off/true/false/1/0 is an error.
func Parse(raw string) (*Set, error) {
	out := make(map[string]bool)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = normalize(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("feature flag %q: expected name=value", pair)
		}
		enabled, err := parseValue(value)
		if err != nil {
			return nil, fmt.Errorf("feature flag %q: %w", key, err)
		}
		out[key] = enabled
	}

	return &Set{flags: out}, nil
}

// Enabled reports the configured state of name, or def when it is not set.
func (s *Set) Enabled(name string, def bool) bool {
	if s == nil {
		return def
	}
	v, ok := s.flags[normalize(name)]
	if !ok {
		return def
	}
	return v
}

// Names returns the configured flag names in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.flags))
	for k := range s.flags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func parseValue(v string) (bool, error) {
	switch normalize(v) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("unsupported value %q", strings.TrimSpace(v))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
