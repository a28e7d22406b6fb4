package env

import (
	"encoding/json"
	"sort"
)

// Variable is a single environment entry.
type Variable struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled" required:"false"`
	Type    string `json:"type,omitempty"`

	_ struct{} `json:"-" additionalProperties:"true"`
}

// UnmarshalJSON decodes a variable, treating a missing "enabled" as true.
func (v *Variable) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key     string `json:"key"`
		Value   any    `json:"value"`
		Enabled *bool  `json:"enabled"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	v.Key = raw.Key
	v.Value = stringify(raw.Value)
	v.Enabled = raw.Enabled == nil || *raw.Enabled
	v.Type = raw.Type
	return nil
}

// Environment is an ordered sequence of variables with unique keys.
// It is not safe for concurrent use; a run owns its environment exclusively.
type Environment struct {
	ID     string     `json:"id,omitempty"`
	Name   string     `json:"name,omitempty"`
	Values []Variable `json:"values"`

	_ struct{} `json:"-" additionalProperties:"true"`
}

func New(name string) *Environment {
	return &Environment{
		Name:   name,
		Values: make([]Variable, 0),
	}
}

// FromMap builds an environment from a map, ordered by key.
func FromMap(name string, vars map[string]string) *Environment {
	e := New(name)
	e.Merge(vars)
	return e
}

// Get looks up a key regardless of its enabled flag.
func (e *Environment) Get(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	if i := e.index(key); i >= 0 {
		return e.Values[i].Value, true
	}
	return "", false
}

// Set updates the value in place when the key exists, otherwise appends an
// enabled variable. It never creates a duplicate key.
func (e *Environment) Set(key, value string) {
	if i := e.index(key); i >= 0 {
		e.Values[i].Value = value
		return
	}
	e.Values = append(e.Values, Variable{
		Key:     key,
		Value:   value,
		Enabled: true,
	})
}

// Merge applies Set for every entry, in key order.
func (e *Environment) Merge(vars map[string]string) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Set(k, vars[k])
	}
}

func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Values)
}

// Keys returns the variable keys in store order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, e.Len())
	if e == nil {
		return keys
	}
	for _, v := range e.Values {
		keys = append(keys, v.Key)
	}
	return keys
}

// Clone returns a deep copy.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return New("")
	}
	c := &Environment{
		ID:     e.ID,
		Name:   e.Name,
		Values: make([]Variable, len(e.Values)),
	}
	copy(c.Values, e.Values)
	return c
}

func (e *Environment) index(key string) int {
	for i := range e.Values {
		if e.Values[i].Key == key {
			return i
		}
	}
	return -1
}
