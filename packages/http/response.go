package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// ParsedBody returns the body decoded as JSON when it is valid JSON and the
// raw text otherwise.
func (r *Response) ParsedBody() any {
	if len(r.Body) > 0 && gjson.ValidBytes(r.Body) {
		return gjson.ParseBytes(r.Body).Value()
	}
	return string(r.Body)
}

// StatusText returns the reason phrase, e.g. "Not Found".
func (r *Response) StatusText() string {
	if text, ok := strings.CutPrefix(r.Status, strconv.Itoa(r.StatusCode)+" "); ok && text != "" {
		return text
	}
	return http.StatusText(r.StatusCode)
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
