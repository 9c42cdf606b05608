// Package observation turns captured HTTP responses (raw header dumps,
// JSON observations and HAR archives) into Observation values.
package observation

import (
	"net/http"
	"strings"

	"github.com/clbanning/mxj"
	"github.com/pkg/errors"
)

// MaxBodyExcerpt is the number of characters of the body that parsers keep.
const MaxBodyExcerpt = 4096

// ErrInvalidInput is returned when a capture can't be turned into an
// observation at all.
var ErrInvalidInput = errors.New("invalid input")

// Observation is a single captured HTTP response. It is never modified
// after a parser returns it.
type Observation struct {
	URL        string
	Method     string
	StatusCode int
	Headers    map[string]string
	// BodyExcerpt is nil when the capture has no body.
	BodyExcerpt *string
}

// Body returns the body excerpt or an empty string when it is absent.
func (o *Observation) Body() string {
	if o.BodyExcerpt == nil {
		return ""
	}
	return *o.BodyExcerpt
}

func newObservation() *Observation {
	return &Observation{
		Method:  http.MethodGet,
		Headers: make(map[string]string),
	}
}

// setHeader stores a header so that the last value wins regardless of the
// case of its name.
func (o *Observation) setHeader(name, value string) {
	for k := range o.Headers {
		if k != name && strings.EqualFold(k, name) {
			delete(o.Headers, k)
		}
	}
	o.Headers[name] = value
}

// decodeObject decodes a JSON document whose top level must be an object.
func decodeObject(text string) (mxj.Map, error) {
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return nil, invalidInput("invalid JSON format: top level is not an object")
	}

	doc, err := mxj.NewMapJson([]byte(text))
	if err != nil {
		return nil, invalidInput("invalid JSON format: %v", err)
	}

	return doc, nil
}

func invalidInput(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// excerpt cuts s down to MaxBodyExcerpt characters.
func excerpt(s string) *string {
	n := 0
	for i := range s {
		if n == MaxBodyExcerpt {
			s = s[:i]
			break
		}
		n++
	}
	return &s
}
