package envvar

import (
	"sort"
	"strings"
)

// Variable is a single name/value pair scoped to one environment.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Sort returns a copy of vars ordered by case-insensitive name.
// Entries whose names compare equal keep their relative order.
func Sort(vars []Variable) []Variable {
	out := make([]Variable, len(vars))
	copy(out, vars)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// FromKeyValue converts a name → value payload into variables.
// The result is unordered; callers sort it.
func FromKeyValue(kv map[string]string) []Variable {
	out := make([]Variable, 0, len(kv))
	for name, value := range kv {
		out = append(out, Variable{Name: name, Value: value})
	}
	return out
}

// ToKeyValue converts variables back into a payload. Later entries win
// when names repeat.
func ToKeyValue(vars []Variable) map[string]string {
	kv := make(map[string]string, len(vars))
	for _, v := range vars {
		kv[v.Name] = v.Value
	}
	return kv
}

// IsDirty reports whether working differs from baseline. Both slices are
// expected to be sorted; the comparison is positional and ignores case.
func IsDirty(working, baseline []Variable) bool {
	if len(working) != len(baseline) {
		return true
	}
	for i := range working {
		if strings.ToLower(working[i].Name) != strings.ToLower(baseline[i].Name) ||
			strings.ToLower(working[i].Value) != strings.ToLower(baseline[i].Value) {
			return true
		}
	}
	return false
}

// IsRowDirty reports whether row has no case-insensitive name and value
// match anywhere in baseline.
func IsRowDirty(row Variable, baseline []Variable) bool {
	for _, b := range baseline {
		if strings.EqualFold(b.Name, row.Name) && strings.EqualFold(b.Value, row.Value) {
			return false
		}
	}
	return true
}

// Filter returns the variables whose name contains q, ignoring case.
func Filter(vars []Variable, q string) []Variable {
	if q == "" {
		return vars
	}
	q = strings.ToLower(q)
	var out []Variable
	for _, v := range vars {
		if strings.Contains(strings.ToLower(v.Name), q) {
			out = append(out, v)
		}
	}
	return out
}

// Names returns the variable names in order.
func Names(vars []Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return names
}
