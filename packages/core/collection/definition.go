package collection

import "strings"

const (
	// ListenPreRequest is the event listener name of pre-request scripts
	ListenPreRequest = "prerequest"
	// ListenTest is the event listener name of post-response scripts
	ListenTest = "test"

	// BodyModeRaw is the only body mode the runner sends
	BodyModeRaw = "raw"

	// DefaultProtocol is used when a structured URL has no protocol
	DefaultProtocol = "https"
)

// Definition describes one API call. It is read-only during a run.
type Definition struct {
	Name    string
	Folder  string
	Method  string
	URL     URLSpec
	Headers []Header
	Body    *Body
	Events  []Event
}

type Header struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type Body struct {
	Mode string `json:"mode"`
	Raw  string `json:"raw,omitempty"`
}

// Event binds a script to a listener such as "prerequest" or "test".
type Event struct {
	Listen string
	Script Script
}

type Script struct {
	Type string
	Exec string
}

// Script returns the source of the first script registered for listen,
// or "" when there is none.
func (d *Definition) Script(listen string) string {
	for _, ev := range d.Events {
		if ev.Listen == listen {
			return ev.Script.Exec
		}
	}
	return ""
}

// DisplayMethod returns the method shown to users; GET when unset.
func (d *Definition) DisplayMethod() string {
	if d.Method == "" {
		return "GET"
	}
	return strings.ToUpper(d.Method)
}

// DisplayURL composes the URL template without substituting variables.
func (d *Definition) DisplayURL() string {
	return d.URL.Template()
}

// FullName joins the folder path and the item name.
func (d *Definition) FullName() string {
	if d.Folder == "" {
		return d.Name
	}
	return d.Folder + "/" + d.Name
}
