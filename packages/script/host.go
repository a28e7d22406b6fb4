package script

import "github.com/hashicorp/go-hclog"

// Host is the only state a script can reach.
type Host interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Phase names the listener a script is registered under.
type Phase string

const (
	PhasePreRequest Phase = "prerequest"
	PhaseTest       Phase = "test"
)

// Response is what a test script sees of the HTTP response.
type Response struct {
	Code    int
	Status  string
	Headers map[string]string
	// Body is the JSON-decoded body, or the raw text when it is not JSON.
	Body any
	Text string
}

// Context is passed to Engine.Execute. Response is nil in the pre-request phase.
type Context struct {
	Phase    Phase
	Item     string
	Host     Host
	Response *Response
	Logger   hclog.Logger
}

func (c *Context) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}
