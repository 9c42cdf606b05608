package observation

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	AutoFormat = "auto"
	RawFormat  = "raw"
	JSONFormat = "json"
	HARFormat  = "har"
)

var Formats = []string{AutoFormat, RawFormat, JSONFormat, HARFormat}

// ValidateFormat checks that format is one of Formats.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}

	return fmt.Errorf("invalid input format: %s", format)
}

// DetectFormat guesses the input format from the file extension.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".har":
		return HARFormat
	case ".json":
		return JSONFormat
	default:
		return RawFormat
	}
}

// Parse decodes data and parses it in the given format. AutoFormat is not
// accepted here, resolve it with DetectFormat first.
func Parse(logger logrus.FieldLogger, format string, data []byte) (*Observation, error) {
	text := Decode(data)

	switch format {
	case RawFormat:
		return ParseRaw(logger, text)
	case JSONFormat:
		return ParseJSON(logger, text)
	case HARFormat:
		return ParseHAR(logger, text)
	default:
		return nil, invalidInput("unknown format: %s", format)
	}
}

// ReadFile reads a capture file and parses it. With AutoFormat the format
// is taken from the file extension.
func ReadFile(logger logrus.FieldLogger, path string, format string) (*Observation, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, invalidInput("file not found: %s", path)
		}
		return nil, errors.Wrap(err, "couldn't stat input file")
	}
	if !info.Mode().IsRegular() {
		return nil, invalidInput("path is not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read input file")
	}

	if format == AutoFormat {
		format = DetectFormat(path)
	}

	logger.WithFields(logrus.Fields{
		"file":   path,
		"format": format,
	}).Debug("parsing capture")

	ob, err := Parse(logger, format, data)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't parse %s", path)
	}

	return ob, nil
}

var (
	utf8BOM    = []byte{0xef, 0xbb, 0xbf}
	utf16BEBOM = []byte{0xfe, 0xff}
	utf16LEBOM = []byte{0xff, 0xfe}
)

// Decode converts a capture to text. A UTF-16 byte order mark selects
// UTF-16, anything else is read as UTF-8. Invalid UTF-8 sequences are
// dropped.
func Decode(data []byte) string {
	if bytes.HasPrefix(data, utf16BEBOM) || bytes.HasPrefix(data, utf16LEBOM) {
		decoder := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()

		decoded, _, err := transform.Bytes(decoder, data)
		if err == nil {
			return string(decoded)
		}
	}

	return strings.ToValidUTF8(string(bytes.TrimPrefix(data, utf8BOM)), "")
}
