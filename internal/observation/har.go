package observation

import (
	"strings"

	"github.com/clbanning/mxj"
	"github.com/sirupsen/logrus"
)

// ParseHAR builds an observation from the first entry of an HTTP Archive.
func ParseHAR(logger logrus.FieldLogger, text string) (*Observation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput("input text is empty")
	}

	doc, err := decodeObject(text)
	if err != nil {
		return nil, err
	}

	harLog, ok := doc["log"]
	if !ok {
		return nil, invalidInput("invalid HAR format: missing 'log' field")
	}
	logObj, ok := harLog.(map[string]any)
	if !ok {
		return nil, invalidInput("invalid HAR format: 'log' is not an object")
	}

	entries, _ := logObj["entries"].([]any)
	if len(entries) == 0 {
		return nil, invalidInput("HAR file contains no entries")
	}

	entry, ok := entries[0].(map[string]any)
	if !ok {
		return nil, invalidInput("invalid HAR format: entry is not an object")
	}
	e := mxj.Map(entry)

	ob := newObservation()

	if v, err := e.ValueForPath("response.status"); err == nil {
		code, ok := intValue(v)
		if !ok {
			logger.WithField("value", v).Warn("invalid status code in HAR, using 0")
		}
		ob.StatusCode = code
	}

	// ValueForPath flattens lists, so the header list is read directly.
	if response, ok := entry["response"].(map[string]any); ok {
		headers, _ := response["headers"].([]any)
		for _, h := range headers {
			header, ok := h.(map[string]any)
			if !ok {
				continue
			}
			name, nameOK := header["name"].(string)
			value, valueOK := header["value"].(string)
			if !nameOK || !valueOK {
				continue
			}
			ob.setHeader(name, value)
		}
	}

	if v, err := e.ValueForPath("response.content.text"); err == nil {
		if text, ok := v.(string); ok && text != "" {
			ob.BodyExcerpt = excerpt(text)
		}
	}

	if v, err := e.ValueForPath("request.url"); err == nil {
		ob.URL = stringValue(v)
	}
	if v, err := e.ValueForPath("request.method"); err == nil {
		if method := stringValue(v); method != "" {
			ob.Method = method
		}
	}

	logger.WithFields(logrus.Fields{
		"status":  ob.StatusCode,
		"reason":  statusText(ob.StatusCode),
		"headers": len(ob.Headers),
		"url":     ob.URL,
	}).Debug("parsed HAR file")

	return ob, nil
}
