package observation

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http/httpguts"
)

// ParseRaw parses `curl -i` output or an RFC 822 style header block.
//
// Blank lines are ignored. The status line may appear anywhere in the
// header section, and the first line that isn't a valid "Name: value"
// header starts the body.
func ParseRaw(logger logrus.FieldLogger, text string) (*Observation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput("input text is empty")
	}

	ob := newObservation()

	var body strings.Builder
	inHeaders := true

	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if inHeaders {
			if strings.HasPrefix(strings.ToLower(line), "http/") {
				ob.StatusCode = parseStatusLine(logger, line)
				continue
			}

			if name, value, ok := strings.Cut(line, ":"); ok && httpguts.ValidHeaderFieldName(strings.TrimSpace(name)) {
				ob.setHeader(strings.TrimSpace(name), strings.TrimSpace(value))
				continue
			}

			inHeaders = false
		}

		body.WriteString(line)
		body.WriteString("\n")
	}

	if body.Len() > 0 {
		ob.BodyExcerpt = excerpt(body.String())
	}

	logger.WithFields(logrus.Fields{
		"status":  ob.StatusCode,
		"headers": len(ob.Headers),
	}).Debug("parsed raw headers")

	return ob, nil
}

// parseStatusLine returns the first all-digit token of a status line, e.g.
// 200 for "HTTP/1.1 200 OK".
func parseStatusLine(logger logrus.FieldLogger, line string) int {
	for _, field := range strings.Fields(line) {
		if !isDigits(field) {
			continue
		}

		code, err := strconv.Atoi(field)
		if err != nil {
			logger.WithField("value", field).Warn("couldn't parse status code")
			return 0
		}

		return code
	}

	return 0
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
