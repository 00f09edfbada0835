package envvar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// FormatBulk renders vars as the text shown in the bulk editor.
func FormatBulk(vars []Variable) string {
	if len(vars) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ParseBulk parses bulk editor text. Comments and trailing commas are
// accepted. Every element needs a non-empty string name and a string
// value, and names must be unique ignoring case.
func ParseBulk(text string) ([]Variable, error) {
	if strings.TrimSpace(text) == "" {
		return []Variable{}, nil
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), &raw); err != nil {
		return nil, fmt.Errorf("expected a JSON array of {\"name\", \"value\"} objects: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	vars := make([]Variable, 0, len(raw))
	for i, item := range raw {
		name, ok := item["name"].(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("item %d: name is required", i+1)
		}
		value, ok := item["value"].(string)
		if !ok {
			return nil, fmt.Errorf("item %d (%s): value must be a string", i+1, name)
		}
		for key := range item {
			if key != "name" && key != "value" {
				return nil, fmt.Errorf("item %d (%s): unexpected field %q", i+1, name, key)
			}
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			return nil, fmt.Errorf("duplicate name %q", name)
		}
		seen[lower] = true
		vars = append(vars, Variable{Name: name, Value: value})
	}
	return vars, nil
}

// ValidateEntry checks a name entered in the add/edit panel. index is the
// row being edited, or -1 when adding.
func ValidateEntry(vars []Variable, index int, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	for i, v := range vars {
		if i == index {
			continue
		}
		if strings.EqualFold(v.Name, name) {
			return fmt.Errorf("a variable named %q already exists", v.Name)
		}
	}
	return nil
}
