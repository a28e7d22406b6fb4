package env

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Parse decodes a Postman environment document. Duplicate keys collapse
// onto the first occurrence, keeping the last value.
func Parse(data []byte) (*Environment, error) {
	var doc Environment
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	e := &Environment{
		ID:     doc.ID,
		Name:   doc.Name,
		Values: make([]Variable, 0, len(doc.Values)),
	}
	for _, v := range doc.Values {
		if i := e.index(v.Key); i >= 0 {
			e.Values[i].Value = v.Value
			continue
		}
		e.Values = append(e.Values, v)
	}
	return e, nil
}

// LoadFile reads a Postman environment JSON file.
func LoadFile(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read environment file: %w", err)
	}
	return Parse(data)
}

// WriteFile writes the environment as an indented Postman environment document.
func WriteFile(path string, e *Environment) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
