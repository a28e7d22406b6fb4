package collection

import "strings"

// URLKind tags the two shapes a request URL can take.
type URLKind int

const (
	URLRaw URLKind = iota
	URLStructured
)

// URLSpec is either a raw template string or a structured
// protocol/host/path description.
type URLSpec struct {
	Kind     URLKind
	Raw      string
	Protocol string
	Host     []string
	Path     []string
}

func RawURL(raw string) URLSpec {
	return URLSpec{Kind: URLRaw, Raw: raw}
}

func StructuredURL(protocol string, host, path []string) URLSpec {
	return URLSpec{
		Kind:     URLStructured,
		Protocol: protocol,
		Host:     host,
		Path:     path,
	}
}

// Template returns the unsubstituted URL. A structured URL prefers its raw
// field, then composes protocol://host/path when both host and path are
// present, and is empty otherwise.
func (u URLSpec) Template() string {
	switch u.Kind {
	case URLRaw:
		return u.Raw
	case URLStructured:
		if u.Raw != "" {
			return u.Raw
		}
		if u.Host == nil || u.Path == nil {
			return ""
		}
		protocol := u.Protocol
		if protocol == "" {
			protocol = DefaultProtocol
		}
		return protocol + "://" + strings.Join(u.Host, ".") + "/" + strings.Join(u.Path, "/")
	default:
		return ""
	}
}
