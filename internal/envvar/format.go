package envvar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Format is a file format for exporting and importing variables.
type Format string

const (
	FormatDotenv Format = "dotenv"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatDotenv, FormatJSON, FormatYAML}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDotenv, FormatJSON, FormatYAML:
		return f, nil
	case "env":
		return FormatDotenv, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want dotenv, json or yaml)", s)
}

// Encode writes vars in the given format, sorted by name.
func Encode(f Format, vars []Variable) ([]byte, error) {
	vars = Sort(vars)
	switch f {
	case FormatDotenv:
		return encodeDotenv(vars)
	case FormatJSON:
		data, err := json.MarshalIndent(ToKeyValue(vars), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, v := range vars {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: v.Name},
				&yaml.Node{Kind: yaml.ScalarNode, Value: v.Value, Tag: "!!str"},
			)
		}
		return yaml.Marshal(node)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// Decode parses data in the given format.
func Decode(f Format, data []byte) ([]Variable, error) {
	switch f {
	case FormatDotenv:
		return decodeDotenv(data)
	case FormatJSON:
		var kv map[string]string
		if err := json.Unmarshal(data, &kv); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return Sort(FromKeyValue(kv)), nil
	case FormatYAML:
		var kv map[string]string
		if err := yaml.Unmarshal(data, &kv); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return Sort(FromKeyValue(kv)), nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// encodeDotenv writes one NAME=VALUE line per variable, keeping the order of
// vars rather than godotenv's byte-wise key order.
func encodeDotenv(vars []Variable) ([]byte, error) {
	var buf bytes.Buffer
	for _, v := range vars {
		line, err := godotenv.Marshal(map[string]string{v.Name: v.Value})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", v.Name, err)
		}
		// Marshal writes integers bare, which would drop leading zeros.
		if n, convErr := strconv.Atoi(v.Value); convErr == nil && strconv.Itoa(n) != v.Value {
			line = fmt.Sprintf("%s=%q", v.Name, v.Value)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func decodeDotenv(data []byte) ([]Variable, error) {
	kv, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse dotenv: %w", err)
	}
	return Sort(FromKeyValue(kv)), nil
}
