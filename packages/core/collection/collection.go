package collection

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// Info is the collection header.
type Info struct {
	PostmanID string `json:"_postman_id,omitempty"`
	Name      string `json:"name"`
	Schema    string `json:"schema,omitempty"`
}

// ItemInfo is the display metadata of one definition.
type ItemInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Folder string `json:"folder,omitempty"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

// Collection is an ordered, flattened list of definitions.
type Collection struct {
	Info        Info
	definitions []*Definition
}

func New(info Info, defs ...*Definition) *Collection {
	return &Collection{Info: info, definitions: defs}
}

func (c *Collection) Len() int {
	return len(c.definitions)
}

// Definition returns the definition at index i.
func (c *Collection) Definition(i int) (*Definition, bool) {
	if i < 0 || i >= len(c.definitions) {
		return nil, false
	}
	return c.definitions[i], true
}

func (c *Collection) Definitions() []*Definition {
	return c.definitions
}

// Find returns the index of the first definition whose name or
// folder-qualified name equals name.
func (c *Collection) Find(name string) (int, bool) {
	for i, d := range c.definitions {
		if d.Name == name || d.FullName() == name {
			return i, true
		}
	}
	return -1, false
}

// Items returns display metadata for every definition. URLs are not
// substituted, so secrets held in the environment never show up here.
func (c *Collection) Items() []ItemInfo {
	items := make([]ItemInfo, len(c.definitions))
	for i, d := range c.definitions {
		items[i] = ItemInfo{
			Index:  i,
			Name:   d.Name,
			Folder: d.Folder,
			Method: d.DisplayMethod(),
			URL:    d.DisplayURL(),
		}
	}
	return items
}

type document struct {
	Info Info      `json:"info"`
	Item []rawItem `json:"item"`
}

type rawItem struct {
	Name    string          `json:"name"`
	Item    []rawItem       `json:"item"`
	Request json.RawMessage `json:"request"`
	Event   []rawEvent      `json:"event"`
}

type rawRequest struct {
	Method string          `json:"method"`
	Header []Header        `json:"header"`
	Body   *Body           `json:"body"`
	URL    json.RawMessage `json:"url"`
}

type rawEvent struct {
	Listen string `json:"listen"`
	Script struct {
		Type string          `json:"type"`
		Exec json.RawMessage `json:"exec"`
	} `json:"script"`
}

// Load reads and parses a collection file.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read collection file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes a collection document.
func Parse(data []byte) (*Collection, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}

	c := &Collection{Info: doc.Info}
	if err := c.flatten(doc.Item, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collection) flatten(items []rawItem, folders []string) error {
	for _, it := range items {
		if it.Item != nil && len(it.Request) == 0 {
			if err := c.flatten(it.Item, append(slices.Clip(folders), it.Name)); err != nil {
				return err
			}
			continue
		}

		def, err := decodeItem(it)
		if err != nil {
			return fmt.Errorf("%w: item %q: %v", ErrInvalidCollection, it.Name, err)
		}
		def.Folder = strings.Join(folders, "/")
		c.definitions = append(c.definitions, def)
	}
	return nil
}

func decodeItem(it rawItem) (*Definition, error) {
	def := &Definition{Name: it.Name}

	for _, ev := range it.Event {
		def.Events = append(def.Events, Event{
			Listen: ev.Listen,
			Script: Script{
				Type: ev.Script.Type,
				Exec: strings.Join(stringList(gjson.ParseBytes(ev.Script.Exec)), "\n"),
			},
		})
	}

	req := gjson.ParseBytes(it.Request)
	switch {
	case !req.Exists() || req.Type == gjson.Null:
		return def, nil
	case req.Type == gjson.String:
		def.URL = RawURL(req.String())
		return def, nil
	}

	var r rawRequest
	if err := json.Unmarshal(it.Request, &r); err != nil {
		return nil, err
	}
	def.Method = r.Method
	def.Headers = r.Header
	def.Body = r.Body
	def.URL = parseURL(gjson.ParseBytes(r.URL))
	return def, nil
}

func parseURL(u gjson.Result) URLSpec {
	if u.IsObject() {
		return URLSpec{
			Kind:     URLStructured,
			Raw:      u.Get("raw").String(),
			Protocol: u.Get("protocol").String(),
			Host:     stringList(u.Get("host")),
			Path:     stringList(u.Get("path")),
		}
	}
	return RawURL(u.String())
}

// stringList accepts a string, an array of strings, or an array of
// {"value": ...} objects. A missing value or an empty string yields nil.
func stringList(r gjson.Result) []string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if !r.IsArray() {
		if r.String() == "" {
			return nil
		}
		return []string{r.String()}
	}

	out := make([]string, 0)
	r.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			out = append(out, v.Get("value").String())
		} else {
			out = append(out, v.String())
		}
		return true
	})
	return out
}
