package observation

import (
	"fmt"
	"maps"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ParseJSON parses an observation document:
//
//	{"url": "...", "method": "GET", "status_code": 403,
//	 "headers": {"Server": "cloudflare"}, "body_excerpt": "..."}
//
// Every field is optional. A status code that isn't a number and a headers
// field that isn't an object are replaced with defaults.
func ParseJSON(logger logrus.FieldLogger, text string) (*Observation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput("input text is empty")
	}

	doc, err := decodeObject(text)
	if err != nil {
		return nil, err
	}

	ob := newObservation()
	ob.URL = stringValue(doc["url"])
	if method := stringValue(doc["method"]); method != "" {
		ob.Method = method
	}

	if v, ok := doc["status_code"]; ok {
		code, ok := intValue(v)
		if !ok {
			logger.WithField("value", v).Warn("invalid status_code in JSON, using 0")
		}
		ob.StatusCode = code
	}

	switch headers := doc["headers"].(type) {
	case nil:
	case map[string]any:
		setJSONHeaders(logger, ob, headers)
	default:
		logger.Warn("headers field is not an object, using empty headers")
	}

	if body, ok := doc["body_excerpt"].(string); ok {
		ob.BodyExcerpt = excerpt(body)
	}

	logger.WithFields(logrus.Fields{
		"status":  ob.StatusCode,
		"headers": len(ob.Headers),
	}).Debug("parsed JSON observation")

	return ob, nil
}

// setJSONHeaders copies a headers object into ob. Names differing only in
// case are folded, the lexically last name wins.
func setJSONHeaders(logger logrus.FieldLogger, ob *Observation, raw map[string]any) {
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		switch value := raw[name].(type) {
		case string:
			ob.setHeader(name, value)
		case float64:
			ob.setHeader(name, strconv.FormatFloat(value, 'f', -1, 64))
		case bool:
			ob.setHeader(name, strconv.FormatBool(value))
		case nil:
			ob.setHeader(name, "")
		default:
			logger.WithField("header", name).Warn("header value is not a scalar")
			ob.setHeader(name, fmt.Sprint(value))
		}
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// intValue converts a JSON number or numeric string to int. The zero value
// is returned along with false when the conversion is impossible.
func intValue(v any) (int, bool) {
	switch value := v.(type) {
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) || math.Abs(value) > math.MaxInt32 {
			return 0, false
		}
		return int(value), true
	case string:
		code, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return code, true
	default:
		return 0, false
	}
}

// statusText is used only for logging.
func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "unknown"
}
