package fingerprint

import (
	"regexp"
	"strings"
)

// WildcardSuffix marks a header key that matches every header sharing
// the preceding prefix.
const WildcardSuffix = "*"

// HeaderMatch is a single header-contains rule. An empty Contains means the
// header only has to be present.
type HeaderMatch struct {
	Key      string `yaml:"key" validate:"required"`
	Contains string `yaml:"contains,omitempty"`
}

// IsWildcard reports whether the key matches by prefix.
func (h HeaderMatch) IsWildcard() bool {
	return strings.HasSuffix(h.Key, WildcardSuffix)
}

// Prefix returns the lower-cased key without the wildcard marker.
func (h HeaderMatch) Prefix() string {
	return strings.ToLower(strings.TrimSuffix(h.Key, WildcardSuffix))
}

// Rule contains the hints attributed to one vendor.
type Rule struct {
	Vendor  string        `yaml:"vendor" validate:"required"`
	Headers []HeaderMatch `yaml:"headers,omitempty" validate:"dive"`
	Cookies []string      `yaml:"cookies,omitempty" validate:"dive,required"`
	Body    []string      `yaml:"body,omitempty"`
}

// HintKind is the closed set of match kinds a generic hint can have.
type HintKind string

const (
	HeaderContains HintKind = "header"
	CookieContains HintKind = "cookie"
	BodyContains   HintKind = "body"
	BodyRegex      HintKind = "regex"
)

var HintKinds = []HintKind{HeaderContains, CookieContains, BodyContains, BodyRegex}

// Hint is a vendor-agnostic indicator with its own weight.
//
// For HeaderContains, Key is the header name and Value the optional needle.
// For CookieContains and BodyContains, Value is the needle. For BodyRegex,
// Value is the pattern, which is always matched case-insensitively.
type Hint struct {
	Kind   HintKind `yaml:"kind" validate:"oneof=header cookie body regex"`
	Key    string   `yaml:"key,omitempty"`
	Value  string   `yaml:"value,omitempty"`
	Weight float64  `yaml:"weight" validate:"gt=0,lte=1"`
	Note   string   `yaml:"note" validate:"required"`

	re *regexp.Regexp
}

// Header returns the hint as a header rule. Only meaningful for
// HeaderContains hints.
func (h *Hint) Header() HeaderMatch {
	return HeaderMatch{Key: h.Key, Contains: h.Value}
}

// Regexp returns the compiled pattern of a BodyRegex hint, nil otherwise.
func (h *Hint) Regexp() *regexp.Regexp {
	return h.re
}
